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
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"
)

// execve replaces the current process image; swapped in tests.
var execve = unix.Exec

// exitStatusError passes the exit status of a command on to main.
type exitStatusError struct{ code int }

func (e *exitStatusError) Error() string { return "exit status " + strconv.Itoa(e.code) }

// cli holds the state shared by all subcommands.
type cli struct {
	verbose bool
	ns      *spaceport.Namespacer
}

func newRootCmd() *cobra.Command {
	c := &cli{ns: &spaceport.Namespacer{}}
	root := &cobra.Command{
		Use:           "spaceport",
		Short:         "Create, enter, and persist Linux-kernel namespaces",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelInfo
			}
			c.ns.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log namespace operations")

	root.AddCommand(
		newUnshareCmd(c),
		newEnterCmd(c),
		newPersistCmd(c),
		newUnpersistCmd(c),
		newCloneCmd(c),
		newHoldCmd(c),
		newNamesCmd(),
	)
	return root
}

// execCommand replaces this process with the passed command, or with a shell
// if there is no command.
func execCommand(args []string) error {
	if len(args) == 0 {
		args = []string{os.Getenv("SHELL")}
		if args[0] == "" {
			args[0] = "/bin/sh"
		}
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}
	if err := execve(path, args, os.Environ()); err != nil {
		return fmt.Errorf("cannot execute %s: %w", path, err)
	}
	return nil
}
