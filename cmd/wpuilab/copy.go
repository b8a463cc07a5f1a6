/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
)

func newCopyCmd(a *app) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "copy <dir> <nodeId>",
		Short: "Copy a node subtree as JSON to the system clipboard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(args[0]); err != nil {
				return err
			}
			pr, err := a.currentProject()
			if err != nil {
				return err
			}
			n := findInProject(pr, args[1])
			if n == nil {
				return fmt.Errorf("node %q not found in project %q", args[1], pr.Name)
			}
			data, err := json.MarshalIndent(n, "", "  ")
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if clipboard.Unsupported {
				return errors.New("no system clipboard available; use --print")
			}
			if err := clipboard.WriteAll(string(data)); err != nil {
				return fmt.Errorf("write clipboard: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %s %s (%d nodes)\n", n.Type, n.ID, len(tree.CollectIDs([]*domain.ComponentNode{n})))
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "write the JSON to stdout instead of the clipboard")
	return cmd
}

// findInProject looks in the current page first, then the other pages, then the definitions.
func findInProject(pr *domain.Project, id string) *domain.ComponentNode {
	if i := pr.CurrentPage(); i >= 0 {
		if n := tree.Find(pr.Pages[i].Tree, id); n != nil {
			return n
		}
	}
	for i := range pr.Pages {
		if n := tree.Find(pr.Pages[i].Tree, id); n != nil {
			return n
		}
	}
	return tree.Find(pr.GlobalComponents, id)
}
