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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wpuilab/internal/config"
	"wpuilab/internal/domain"
	"wpuilab/internal/editor"
	"wpuilab/internal/ids"
	applog "wpuilab/internal/log"
	"wpuilab/internal/registry"
	"wpuilab/internal/storage"
	"wpuilab/internal/version"
)

// app carries what every command needs once the config is loaded.
type app struct {
	cfg     config.AppConfig
	secret  string
	reg     *registry.Registry
	proc    *editor.Processor
	handle  *storage.Handle // filled in place so the crash handler sees the opened workspace
	session *editor.Session
	log     *slog.Logger
}

func newApp() *app {
	return &app{handle: &storage.Handle{}, cfg: config.Defaults()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "wpuilab",
		Short:         "Edit WPUI Lab workspaces from the command line",
		Long:          `wpuilab drives the WPUI Lab component-tree engine headlessly: it creates, inspects, validates and edits workspace folders (wpui.json) and syncs them with a shared Postgres store.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = applog.Close()
		},
	}
	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newOpenCmd(a),
		newValidateCmd(a),
		newTreeCmd(a),
		newApplyCmd(a),
		newImportCmd(a),
		newFindCmd(a),
		newWhereUsedCmd(a),
		newCopyCmd(a),
		newWatchCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newRemotesCmd(a),
		newRevisionsCmd(a),
		newRevertCmd(a),
		newCloneCmd(a),
		newSchemaCmd(),
		newConfigCmd(a),
	)
	return root
}

// setup loads the config, initializes logging and builds the command processor.
func (a *app) setup() error {
	cfg, secret, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg, a.secret = cfg, secret
	applog.Init(cfg.Logging.LogOptions())
	a.log = applog.WithComponent("cli")

	reg := registry.Default()
	if cfg.Editor.RegistryFile != "" {
		if reg, err = registry.Load(cfg.Editor.RegistryFile); err != nil {
			return err
		}
	}
	if len(cfg.Editor.PasteAsSibling) > 0 {
		reg = reg.WithPasteAsSibling(cfg.Editor.PasteAsSibling...)
	}
	a.reg = reg
	a.proc = editor.New(reg, ids.UUID{Prefix: cfg.Editor.IDPrefix})
	a.proc.History.Limit = cfg.Editor.HistoryLimit
	return nil
}

// open loads the workspace at dir and starts a session on it.
func (a *app) open(dir string) (*storage.Handle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		a.log.Warn("manifest was unreadable, loaded latest backup", slog.String("root", abs))
	}
	h.BackupsKeep = a.cfg.Storage.BackupsKeep
	*a.handle = *h
	a.session = editor.NewSession(a.proc, h.Workspace)
	return a.handle, nil
}

// save writes the session workspace, records a revision of the current project and marks the session clean.
func (a *app) save(ctx context.Context) error {
	ws := a.session.Workspace()
	a.handle.Workspace = ws
	if err := storage.Save(a.handle); err != nil {
		return err
	}
	if ws.CurrentProjectID != "" {
		if err := storage.RecordRevision(ctx, a.handle, ws.CurrentProjectID, a.cfg.Storage.RevisionsKeep); err != nil {
			a.log.Warn("record revision failed", slog.Any("err", err))
		}
	}
	_, err := a.session.Dispatch(editor.MarkSaved{})
	return err
}

// live returns the newest in-memory workspace for the crash handler.
func (a *app) live() domain.Workspace {
	if a.session != nil {
		return a.session.Workspace()
	}
	return a.handle.Workspace
}

func (a *app) remoteTimeout() time.Duration {
	if a.cfg.Remote.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(a.cfg.Remote.TimeoutMs) * time.Millisecond
}

// currentProject returns the current project of the open session.
func (a *app) currentProject() (*domain.Project, error) {
	pr, ok := a.session.State().CurrentProject()
	if !ok {
		return nil, fmt.Errorf("workspace has no current project")
	}
	return pr, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "WPUI Lab")
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
