/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wpuilab/internal/editor"
	"wpuilab/internal/validate"
)

// readInput reads a file argument; "-" reads stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newApplyCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <dir> <actions.json>",
		Short: "Dispatch a JSON array of actions and save the result",
		Long: `Reads a JSON array of {"type": "...", "payload": {...}} actions, dispatches them in order through an
editing session and saves the workspace when the document changed. "-" reads the actions from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			actions, err := editor.DecodeActions(data)
			if err != nil {
				return err
			}
			if _, err := a.open(args[0]); err != nil {
				return err
			}
			st, err := a.session.DispatchAll(actions...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			past, future := st.History.Stats()
			fmt.Fprintf(out, "Applied %d actions (undo %d, redo %d)\n", len(actions), past, future)
			if !st.IsDirty {
				fmt.Fprintln(out, "No document changes")
				return nil
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run: not saved")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := a.save(ctx); err != nil {
				return err
			}
			a.log.Info("actions applied", slog.Int("count", len(actions)), slog.String("root", a.handle.Root))
			fmt.Fprintln(out, "Saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "dispatch without saving")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var page string
	cmd := &cobra.Command{
		Use:   "import <dir> <tree.json>",
		Short: "Replace a page tree with a validated JSON forest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			res, nodes, err := validate.JSON(data, a.reg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, i := range res.Errors {
				fmt.Fprintln(out, i.String())
			}
			if !res.Valid {
				return res.Err()
			}
			if _, err := a.open(args[0]); err != nil {
				return err
			}
			if page != "" {
				pr, err := a.currentProject()
				if err != nil {
					return err
				}
				pg, err := pickPage(pr, page)
				if err != nil {
					return err
				}
				if _, err := a.session.Dispatch(editor.SetCurrentPage{ID: pg.ID}); err != nil {
					return err
				}
			}
			if _, err := a.session.Dispatch(editor.SetTree{Tree: nodes}); err != nil {
				return err
			}
			if !a.session.IsDirty() {
				fmt.Fprintln(out, "Tree unchanged")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := a.save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Imported tree")
			return nil
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "target page id or name (default: current page)")
	return cmd
}
