/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "wpuilab/internal/log"
)

// Watcher reports changes of a workspace manifest made by other processes.
type Watcher struct {
	root     string
	debounce time.Duration
	fw       *fsnotify.Watcher
	log      *slog.Logger
}

// NewWatcher starts watching the directory of the manifest at root. Saves replace the manifest by rename, so the
// directory is watched rather than the file. Bursts of events within debounce collapse into one reload.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if root == "" {
		return nil, errors.New("workspace root is required")
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "watch").With(slog.String("root", root))
	return &Watcher{root: root, debounce: debounce, fw: fw, log: l}, nil
}

// Run delivers reloads to onChange until ctx is done or the watcher is closed. onChange receives the decoded
// workspace in a fresh Handle, or the error of a manifest that does not load; backups are not consulted.
// onChange runs on a single goroutine, never concurrently with itself.
func (w *Watcher) Run(ctx context.Context, onChange func(*Handle, error)) error {
	manifest := filepath.Join(w.root, ManifestFileName)
	fire := make(chan struct{}, 1)
	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fire:
			ws, err := readManifest(manifest)
			if err != nil {
				w.log.Warn("reload failed", slog.Any("err", err))
				onChange(nil, err)
				continue
			}
			w.log.Info("manifest changed on disk")
			onChange(&Handle{Root: w.root, ManifestPath: manifest, Workspace: ws}, nil)
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != ManifestFileName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
			mu.Unlock()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.Any("err", err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fw.Close() }
