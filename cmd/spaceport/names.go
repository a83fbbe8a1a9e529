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
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
)

var allTypes = []spaceport.Flag{
	spaceport.Mount,
	spaceport.UTS,
	spaceport.IPC,
	spaceport.User,
	spaceport.PID,
	spaceport.Net,
	spaceport.Cgroup,
}

func newNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the known types of namespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROCFS\tFLAG\tSUPPORTED")
			for _, f := range allTypes {
				name, ok := f.Name()
				if !ok {
					name = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%#x\t%t\n", name, f.ProcName(), uint64(f), spaceport.Supported(f))
			}
			return w.Flush()
		},
	}
}
