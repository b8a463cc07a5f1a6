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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"wpuilab/internal/domain"
	"wpuilab/internal/editor"
	applog "wpuilab/internal/log"
	"wpuilab/internal/storage"
)

func newRevisionsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "revisions <dir>",
		Short: "List the saved revisions of the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			revs, err := storage.ListRevisions(cmd.Context(), h, h.Workspace.CurrentProjectID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range revs {
				fmt.Fprintf(out, "%d\t%s\t%d bytes\n", r.ID, r.TS.Local().Format(time.DateTime), len(r.Blob))
			}
			fmt.Fprintf(out, "%d revisions\n", len(revs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of revisions")
	return cmd
}

func newRevertCmd(a *app) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "revert <dir>",
		Short: "Replace the current project with a saved revision",
		Long:  "Replaces the current project with its latest saved revision, or the one given by --id, and saves the workspace.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			ctx := applog.WithWorkspace(cmd.Context(), h.Root)
			rev, err := pickRevision(ctx, h, id)
			if err != nil {
				return err
			}
			pr, err := rev.Project()
			if err != nil {
				return err
			}
			ws := a.session.Workspace()
			i := ws.ProjectByID(pr.ID)
			if i < 0 {
				return fmt.Errorf("revision %d belongs to project %q which is no longer in the workspace", rev.ID, pr.ID)
			}
			projects := domain.CloneProjects(ws.Projects)
			projects[i] = pr
			if _, err := a.session.Dispatch(editor.SetProjects{Projects: projects, CurrentProjectID: pr.ID}); err != nil {
				return fmt.Errorf("revision %d: %w", rev.ID, err)
			}
			// SET_PROJECTS loads clean; save explicitly.
			a.handle.Workspace = a.session.Workspace()
			if err := storage.Save(a.handle); err != nil {
				return err
			}
			a.log.InfoContext(ctx, "reverted project", slog.String("project", pr.ID), slog.Int64("revision", rev.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %s to revision %d (%s)\n", pr.Name, rev.ID, rev.TS.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "revision id (default: latest)")
	return cmd
}

func pickRevision(ctx context.Context, h *storage.Handle, id int64) (storage.Revision, error) {
	pid := h.Workspace.CurrentProjectID
	if id == 0 {
		rev, ok, err := storage.LatestRevision(ctx, h, pid)
		if err != nil {
			return storage.Revision{}, err
		}
		if !ok {
			return storage.Revision{}, fmt.Errorf("project %q has no saved revisions", pid)
		}
		return rev, nil
	}
	revs, err := storage.ListRevisions(ctx, h, pid, 0)
	if err != nil {
		return storage.Revision{}, err
	}
	for _, r := range revs {
		if r.ID == id {
			return r, nil
		}
	}
	return storage.Revision{}, fmt.Errorf("revision %d not found for project %q", id, pid)
}
