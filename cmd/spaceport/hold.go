// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
	"github.com/thediveo/spaceport/holder"
)

func newHoldCmd(c *cli) *cobra.Command {
	var types, to, pinDir string
	var wait bool
	cmd := &cobra.Command{
		Use:   "hold --ns TYPES (--to TEMPLATE | --pin-dir DIR) [--wait]",
		Short: "Create and persist new namespaces without running a command",
		Long: `Create new namespaces by starting a holder child process in them, persist
the new namespaces, and print their paths. Unless told to wait, the holder
terminates afterwards while its persisted namespaces stay alive.

A persisted PID namespace cannot be used anymore after its holder, which is its
initial process, has terminated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags, err := spaceport.ParseFlagSet(types)
			if err != nil {
				return err
			}
			var tmpl spaceport.Template
			switch {
			case to != "":
				if tmpl, err = spaceport.ParseTemplate(to); err != nil {
					return err
				}
			case pinDir != "":
				tmpl = spaceport.NewPinTemplate(pinDir)
			default:
				return &spaceport.UsageError{Reason: "option to or pin-dir must be specified"}
			}

			h, err := holder.New(cmd.Context(), flags,
				holder.WithStdout(cmd.OutOrStdout()),
				holder.WithStderr(cmd.ErrOrStderr()),
				holder.WithLogger(c.ns.Slog()))
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			if err := h.Persist(tmpl); err != nil {
				return err
			}
			if flags.Has(spaceport.PID) {
				path := tmpl.Path(spaceport.PID)
				if err := spaceport.EnsureMountPoint(path); err != nil {
					return err
				}
				if _, err := c.ns.PersistNamespace(h.PID(), spaceport.PID, path); err != nil {
					return err
				}
			}
			for f := range flags.All() {
				fmt.Fprintln(cmd.OutOrStdout(), tmpl.Path(f))
			}
			if flags.Has(spaceport.PID) {
				fmt.Fprintln(cmd.OutOrStdout(), tmpl.Path(spaceport.PID))
			}

			if wait {
				<-cmd.Context().Done()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&types, "ns", "", "comma-separated list of namespace types")
	cmd.Flags().StringVar(&to, "to", "", "path template for persisting the new namespaces")
	cmd.Flags().StringVar(&pinDir, "pin-dir", "", "directory to pin the new namespaces below")
	cmd.Flags().BoolVar(&wait, "wait", false, "keep the holder running until interrupted")
	cmd.MarkFlagsMutuallyExclusive("to", "pin-dir")
	_ = cmd.MarkFlagRequired("ns")
	return cmd
}
