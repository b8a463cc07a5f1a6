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
	"time"

	"github.com/spf13/cobra"

	"wpuilab/internal/editor"
	"wpuilab/internal/storage"
	"wpuilab/internal/validate"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Reload and re-validate the workspace whenever wpui.json changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			w, err := storage.NewWatcher(h.Root, debounce)
			if err != nil {
				return err
			}
			defer w.Close()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", h.Root)
			err = w.Run(cmd.Context(), func(nh *storage.Handle, lerr error) {
				if lerr != nil {
					fmt.Fprintln(out, "reload failed:", lerr)
					return
				}
				reloadInto(a, out, nh)
			})
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before reloading")
	return cmd
}

// reloadInto loads a changed workspace into the session through SET_PROJECTS so it is validated like any load.
func reloadInto(a *app, out io.Writer, nh *storage.Handle) {
	ws := nh.Workspace
	_, err := a.session.Dispatch(editor.SetProjects{Projects: ws.Projects, CurrentProjectID: ws.CurrentProjectID})
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(out, "reloaded workspace is invalid (%d issues), keeping the previous one\n", len(verr.Issues))
		for _, i := range verr.Issues {
			fmt.Fprintln(out, "  "+i.String())
		}
		return
	case err != nil:
		fmt.Fprintln(out, "reload rejected:", err)
		return
	}
	a.handle.Workspace = a.session.Workspace()
	a.log.Info("workspace reloaded", slog.Int("projects", len(ws.Projects)))
	fmt.Fprintf(out, "reloaded: %d projects\n", len(ws.Projects))
}
