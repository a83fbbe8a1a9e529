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
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
)

func newCloneCmd(c *cli) *cobra.Command {
	var types string
	var mapRoot bool
	cmd := &cobra.Command{
		Use:   "clone --ns TYPES [--map-root] -- COMMAND [ARG...]",
		Short: "Start a child process in new namespaces and wait for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := spaceport.ParseFlagSet(types)
			if err != nil {
				return err
			}
			child := exec.Command(args[0], args[1:]...)
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = cmd.ErrOrStderr()
			if mapRoot {
				flags |= spaceport.Flags(spaceport.User)
				child.SysProcAttr = &syscall.SysProcAttr{
					UidMappings: []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getuid(), Size: 1}},
					GidMappings: []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getgid(), Size: 1}},
				}
			}
			if _, err := c.ns.Clone(flags, child); err != nil {
				return err
			}
			if err := child.Wait(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return &exitStatusError{code: exitErr.ExitCode()}
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&types, "ns", "", "comma-separated list of namespace types")
	cmd.Flags().BoolVar(&mapRoot, "map-root", false, "create a user namespace, mapping the current user to root")
	return cmd
}
