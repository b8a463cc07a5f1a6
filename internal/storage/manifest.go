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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wpuilab/internal/domain"
	applog "wpuilab/internal/log"
)

const (
	ManifestFileName = "wpui.json"
	BackupsDirName   = "backups"

	// DefaultBackupsKeep applies when a Handle carries no explicit limit.
	DefaultBackupsKeep = 10
)

var standardSubDirs = []string{
	BackupsDirName,
	IndexDirName,
}

// Handle keeps track of a workspace loaded from or saved to disk.
// Root is the directory containing wpui.json, backups/ and .wpui/.
type Handle struct {
	Root         string
	ManifestPath string
	Workspace    domain.Workspace

	// BackupsKeep bounds the number of manifest backups kept after each save; <= 0 means DefaultBackupsKeep.
	BackupsKeep int

	// Recovered is set when Open had to fall back to a backup.
	Recovered bool
}

// ErrNoBackups is returned when no manifest backup can be found.
var ErrNoBackups = errors.New("no backups found")

// Init creates a new workspace directory at root (creating it if it doesn't exist),
// scaffolds the standard subfolders, and writes the manifest transactionally.
func Init(root string, ws domain.Workspace) (*Handle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	h := &Handle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Workspace:    ws,
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads an existing workspace from root.
// If the manifest cannot be read, parsed or does not match the manifest schema, the latest backup is used.
func Open(root string) (*Handle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	mpath := filepath.Join(root, ManifestFileName)
	ws, err := readManifest(mpath)
	if err == nil {
		return &Handle{Root: root, ManifestPath: mpath, Workspace: ws}, nil
	}
	l.Warn("manifest unreadable, trying backups", slog.Any("err", err))
	ws, name, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open manifest: %w; backup attempt: %w", err, berr)
	}
	l.Info("recovered from backup", slog.String("backup", name))
	return &Handle{Root: root, ManifestPath: mpath, Workspace: ws, Recovered: true}, nil
}

func readManifest(path string) (domain.Workspace, error) {
	var ws domain.Workspace
	b, err := os.ReadFile(path)
	if err != nil {
		return ws, err
	}
	if err := CheckManifest(b); err != nil {
		return ws, err
	}
	if err := json.Unmarshal(b, &ws); err != nil {
		return ws, fmt.Errorf("parse manifest: %w", err)
	}
	return ws, nil
}

// Save writes h.Workspace to disk with transactional semantics, keeps a timestamped backup of the previous
// manifest and prunes old backups. The node index is refreshed afterwards; index failures are logged only.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid Handle: missing paths")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("root", h.Root))
	data, err := json.MarshalIndent(h.Workspace, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		bpath := filepath.Join(bdir, backupName(time.Now()))
		if cerr := copyFile(h.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	dir := filepath.Dir(h.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(h.ManifestPath); err == nil {
		_ = os.Remove(h.ManifestPath)
	}
	if rerr := os.Rename(temp, h.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}

	keep := h.BackupsKeep
	if keep <= 0 {
		keep = DefaultBackupsKeep
	}
	if n, perr := PruneBackups(h.Root, keep); perr != nil {
		l.Warn("prune backups failed", slog.Any("err", perr))
	} else if n > 0 {
		l.Debug("pruned backups", slog.Int("removed", n))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ierr := UpdateIndex(ctx, h.Root, h.Workspace); ierr != nil {
		l.Warn("index update failed", slog.Any("err", ierr))
	}
	l.Info("workspace saved", slog.Int("bytes", len(data)), slog.Int("projects", len(h.Workspace.Projects)))
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if needed, and updates the handle.
func SaveAs(h *Handle, newRoot string) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	h.Root = newRoot
	h.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(h)
}

// backupName embeds a sortable timestamp; the nanosecond part keeps rapid saves apart.
func backupName(t time.Time) string {
	return fmt.Sprintf("%s.%s.%09d.bak", ManifestFileName, t.Format("20060102-150405"), t.Nanosecond())
}

// Backups lists the manifest backups under root, oldest first.
func Backups(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// PruneBackups deletes all but the newest keep backups and returns how many were removed.
func PruneBackups(root string, keep int) (int, error) {
	list, err := Backups(root)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for len(list) > keep {
		if err := os.Remove(list[0]); err != nil {
			return removed, err
		}
		list = list[1:]
		removed++
	}
	return removed, nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup walks the backups newest first and returns the first one that loads.
func openFromLatestBackup(root string) (domain.Workspace, string, error) {
	list, err := Backups(root)
	if err != nil {
		return domain.Workspace{}, "", err
	}
	if len(list) == 0 {
		return domain.Workspace{}, "", ErrNoBackups
	}
	var lastErr error
	for i := len(list) - 1; i >= 0; i-- {
		ws, err := readManifest(list[i])
		if err == nil {
			return ws, filepath.Base(list[i]), nil
		}
		lastErr = err
	}
	return domain.Workspace{}, "", fmt.Errorf("no usable backup: %w", lastErr)
}

// AutosaveCrashSnapshot writes h.Workspace next to the backups as wpui.json.crash-<stamp>.json without touching the
// manifest. Crash snapshots are not pruned and are not used by Open.
func AutosaveCrashSnapshot(h *Handle) (string, error) {
	if h == nil || h.Root == "" {
		return "", errors.New("invalid Handle")
	}
	data, err := json.MarshalIndent(h.Workspace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", ManifestFileName, time.Now().Format("20060102-150405")))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
