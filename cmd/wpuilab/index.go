/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wpuilab/internal/storage"
)

func newFindCmd(a *app) *cobra.Command {
	var types []string
	var allProjects bool
	var limit int
	cmd := &cobra.Command{
		Use:   "find <dir> <text>",
		Short: "Search nodes by name, type or id",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			q := storage.NodeQuery{Types: types, Limit: limit}
			if len(args) == 2 {
				q.Text = args[1]
			}
			if !allProjects {
				q.ProjectID = h.Workspace.CurrentProjectID
			}
			if _, err := storage.DetectAndRebuildIndex(cmd.Context(), h.Root, h.Workspace); err != nil {
				return err
			}
			hits, err := storage.FindNodes(cmd.Context(), h.Root, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, hit := range hits {
				where := hit.PageID
				if where == "" {
					where = "(global)"
				}
				name := ""
				if hit.Name != "" {
					name = fmt.Sprintf(" %q", hit.Name)
				}
				fmt.Fprintf(out, "%s/%s\t%s %s%s\n", hit.ProjectID, where, hit.Type, hit.NodeID, name)
			}
			fmt.Fprintf(out, "%d matches\n", len(hits))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to node types (repeatable)")
	cmd.Flags().BoolVar(&allProjects, "all", false, "search every project, not just the current one")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of matches")
	return cmd
}

func newWhereUsedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "where-used <dir> <globalId>",
		Short: "List the instances of a global component in the current project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			pr, err := a.currentProject()
			if err != nil {
				return err
			}
			if pr.GlobalComponent(args[1]) < 0 {
				return fmt.Errorf("global component %q not found in project %q", args[1], pr.Name)
			}
			if _, err := storage.DetectAndRebuildIndex(cmd.Context(), h.Root, h.Workspace); err != nil {
				return err
			}
			hits, err := storage.WhereUsed(cmd.Context(), h.Root, pr.ID, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, hit := range hits {
				pageName := hit.PageID
				if i := pr.PageByID(hit.PageID); i >= 0 {
					pageName = pr.Pages[i].Name
				}
				fmt.Fprintf(out, "%s\t%s (parent %s)\n", pageName, hit.NodeID, hit.ParentID)
			}
			fmt.Fprintf(out, "%d instances\n", len(hits))
			return nil
		},
	}
}
