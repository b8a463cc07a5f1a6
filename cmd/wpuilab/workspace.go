/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wpuilab/internal/domain"
	"wpuilab/internal/storage"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new workspace with one project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(abs, storage.ManifestFileName)); err == nil {
				return fmt.Errorf("%s already contains a workspace", abs)
			}
			a.log.Info("init workspace", slog.String("root", abs), slog.String("name", args[1]))
			h, err := storage.Init(abs, a.proc.NewWorkspace(args[1]))
			if err != nil {
				return err
			}
			*a.handle = *h
			fmt.Fprintln(cmd.OutOrStdout(), "Created workspace at", abs)
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <dir>",
		Short: "Open a workspace and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func printSummary(w io.Writer, h *storage.Handle) {
	fmt.Fprintln(w, "Root:", h.Root)
	if h.Recovered {
		fmt.Fprintln(w, "Note: loaded from the latest backup")
	}
	fmt.Fprintf(w, "Projects: %d\n", len(h.Workspace.Projects))
	for _, pr := range h.Workspace.Projects {
		marker := " "
		if pr.ID == h.Workspace.CurrentProjectID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s (%s): %d pages, %d global components\n", marker, pr.Name, pr.ID, len(pr.Pages), len(pr.GlobalComponents))
		for _, pg := range pr.Pages {
			pm := " "
			if pg.ID == pr.CurrentPageID {
				pm = "*"
			}
			fmt.Fprintf(w, "   %s %s (%s): %d nodes\n", pm, pg.Name, pg.ID, len(tree.Flatten(pg.Tree)))
		}
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Check the manifest shape and every tree of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			data, err := os.ReadFile(filepath.Join(abs, storage.ManifestFileName))
			if err != nil {
				return err
			}
			if err := storage.CheckManifest(data); err != nil {
				var se *storage.SchemaError
				if errors.As(err, &se) {
					for _, p := range se.Problems {
						fmt.Fprintln(out, "schema:", p)
					}
				}
				return err
			}
			h, err := a.open(abs)
			if err != nil {
				return err
			}
			res := validate.Workspace(&h.Workspace, a.reg)
			for _, i := range res.Errors {
				fmt.Fprintln(out, i.String())
			}
			if !res.Valid {
				return res.Err()
			}
			fmt.Fprintf(out, "OK: %d projects, %d warnings\n", len(h.Workspace.Projects), len(res.Warnings()))
			return nil
		},
	}
}

func newTreeCmd(a *app) *cobra.Command {
	var page string
	var globals bool
	cmd := &cobra.Command{
		Use:   "tree <dir>",
		Short: "Print the component tree of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(args[0]); err != nil {
				return err
			}
			pr, err := a.currentProject()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if globals {
				printForest(out, pr.GlobalComponents)
				return nil
			}
			pg, err := pickPage(pr, page)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s)\n", pg.Name, pg.ID)
			printForest(out, pg.Tree)
			return nil
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page id or name (default: current page)")
	cmd.Flags().BoolVar(&globals, "globals", false, "print the global component definitions instead of a page")
	return cmd
}

// pickPage finds a page by id, then by case-insensitive name; empty selects the current page.
func pickPage(pr *domain.Project, ref string) (*domain.Page, error) {
	if ref == "" {
		i := pr.CurrentPage()
		if i < 0 {
			return nil, fmt.Errorf("project %q has no pages", pr.Name)
		}
		return &pr.Pages[i], nil
	}
	if i := pr.PageByID(ref); i >= 0 {
		return &pr.Pages[i], nil
	}
	for i := range pr.Pages {
		if strings.EqualFold(pr.Pages[i].Name, ref) {
			return &pr.Pages[i], nil
		}
	}
	return nil, fmt.Errorf("page %q not found", ref)
}

func printForest(w io.Writer, nodes []*domain.ComponentNode) {
	tree.Walk(nodes, func(n, parent *domain.ComponentNode, depth int) bool {
		line := strings.Repeat("  ", depth) + n.Type + " " + n.ID
		if n.Name != "" {
			line += fmt.Sprintf(" %q", n.Name)
		}
		if n.IsGlobalInstance && (parent == nil || parent.GlobalComponentID != n.GlobalComponentID) {
			line += " [instance of " + n.GlobalComponentID + "]"
		}
		fmt.Fprintln(w, line)
		return true
	})
}

func newCloneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <dir> <dest>",
		Short: "Save a copy of a workspace into another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			dest, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(dest, storage.ManifestFileName)); err == nil {
				return fmt.Errorf("%s already contains a workspace", dest)
			}
			if err := storage.SaveAs(h, dest); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cloned into", dest)
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [tree|workspace]",
		Short:     "Print the JSON schema of a tree payload or of the workspace manifest",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"tree", "workspace"},
		Run: func(cmd *cobra.Command, args []string) {
			data := validate.TreeSchema()
			if len(args) == 1 && args[0] == "workspace" {
				data = storage.ManifestSchema()
			}
			_, _ = cmd.OutOrStdout().Write(data)
		},
	}
}
