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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wpuilab/internal/editor"
	"wpuilab/internal/ids"
	"wpuilab/internal/remote"
	"wpuilab/internal/storage"
)

// remoteIDKey names the index meta entry holding the workspace's remote stable id.
const remoteIDKey = "remote_id"

func (a *app) openRemote(ctx context.Context) (*remote.Store, error) {
	if a.cfg.Remote.DSN == "" {
		return nil, errors.New("no remote configured: set remote.dsn in the config file or WPUI_PG_DSN")
	}
	s, err := remote.Open(ctx, a.cfg.Remote.DSN, a.secret)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newPushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push <dir>",
		Short: "Upload the workspace as a new remote version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.remoteTimeout())
			defer cancel()
			id, ok, err := storage.Meta(ctx, h.Root, remoteIDKey)
			if err != nil {
				return err
			}
			if !ok {
				id = ids.UUID{Prefix: "ws-"}.NewID()
				if err := storage.SetMeta(ctx, h.Root, remoteIDKey, id); err != nil {
					return err
				}
			}
			s, err := a.openRemote(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			v, err := s.Push(ctx, id, h.Workspace)
			if err != nil {
				return err
			}
			a.log.Info("pushed", slog.String("stable_id", id), slog.Int64("version", v))
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s version %d\n", id, v)
			return nil
		},
	}
}

func newPullCmd(a *app) *cobra.Command {
	var version int64
	cmd := &cobra.Command{
		Use:   "pull <dir> <id>",
		Short: "Download a remote workspace version into <dir>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.remoteTimeout())
			defer cancel()
			s, err := a.openRemote(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			var snap remote.Snapshot
			if version > 0 {
				snap, err = s.PullVersion(ctx, args[1], version)
			} else {
				snap, err = s.Pull(ctx, args[1])
			}
			if err != nil {
				return err
			}

			// Load through SET_PROJECTS so a damaged snapshot is rejected before it reaches disk.
			sess := editor.NewSession(a.proc, a.proc.NewWorkspace("Untitled Project"))
			if _, err := sess.Dispatch(editor.SetProjects{Projects: snap.Workspace.Projects, CurrentProjectID: snap.Workspace.CurrentProjectID}); err != nil {
				return fmt.Errorf("remote snapshot %s@%d: %w", snap.StableID, snap.Version, err)
			}
			ws := sess.Workspace()

			if _, err := os.Stat(filepath.Join(abs, storage.ManifestFileName)); err == nil {
				h, err := a.open(abs)
				if err != nil {
					return err
				}
				h.Workspace = ws
				if err := storage.Save(h); err != nil {
					return err
				}
			} else {
				h, err := storage.Init(abs, ws)
				if err != nil {
					return err
				}
				*a.handle = *h
			}
			if err := storage.SetMeta(ctx, abs, remoteIDKey, snap.StableID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s version %d into %s\n", snap.StableID, snap.Version, abs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&version, "version", 0, "pull a specific version instead of the latest")
	return cmd
}

func newRemotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes",
		Short: "List the workspaces stored remotely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.remoteTimeout())
			defer cancel()
			s, err := a.openRemote(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			list, err := s.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range list {
				fmt.Fprintf(out, "%s\t%s\tv%d\t%s\n", e.StableID, e.Name, e.Version, e.UpdatedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "%d workspaces\n", len(list))
			return nil
		},
	}
}
