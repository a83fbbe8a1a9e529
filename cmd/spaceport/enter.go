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
	"runtime"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"
)

func newEnterCmd(c *cli) *cobra.Command {
	var types, nsref string
	var pid int
	cmd := &cobra.Command{
		Use:   "enter (--pid PID | --fd PATH) [--ns TYPES] [-- COMMAND [ARG...]]",
		Short: "Run a command in existing namespaces",
		Long: `Run a command in the namespaces of another process, or in the namespace
referenced by a path, such as a persisted namespace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := spaceport.ParseFlagSet(types)
			if err != nil {
				return err
			}
			runtime.LockOSThread()
			mount := flags.Has(spaceport.Mount)
			var target spaceport.Target
			switch {
			case cmd.Flags().Changed("pid"):
				target = spaceport.ByPid(pid)
			case nsref != "":
				fd, err := unix.Open(nsref, unix.O_RDONLY|unix.O_CLOEXEC, 0)
				if err != nil {
					return err
				}
				defer func() { _ = unix.Close(fd) }()
				if typ, err := spaceport.Type(fd); err == nil && typ == spaceport.Mount {
					mount = true
				}
				target = spaceport.ByFd(fd)
			}
			// joining a mount namespace requires not sharing filesystem
			// attributes with other threads.
			if mount {
				if err := unix.Unshare(unix.CLONE_FS); err != nil {
					return err
				}
			}
			if _, err := c.ns.Setns(flags, target); err != nil {
				return err
			}
			return execCommand(args)
		},
	}
	cmd.Flags().StringVar(&types, "ns", "", "comma-separated list of namespace types")
	cmd.Flags().IntVar(&pid, "pid", 0, "PID of the process whose namespaces to enter")
	cmd.Flags().StringVar(&nsref, "fd", "", "path referencing the namespace to enter")
	cmd.MarkFlagsMutuallyExclusive("pid", "fd")
	return cmd
}
