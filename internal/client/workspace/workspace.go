// Package workspace manages the on-disk layout of a Wheelway data directory
// and guards it against concurrent clients with a file lock.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/wheelway/wheelway/internal/utils"
)

const (
	metadataDir = ".wheelway"
	logsDir     = "logs"
	dbFile      = "local.db"
	tokenFile   = "auth_token"
	lockFile    = "wheelway.lock"
)

var ErrWorkspaceLocked = errors.New("data dir locked by another wheelway instance")

// Workspace is the client's data directory:
//
//	<root>/
//	  .wheelway/
//	    local.db        record stores + sync queue
//	    auth_token      access token from the last sign-in
//	    wheelway.lock
//	    logs/
type Workspace struct {
	Owner       string
	Root        string
	MetadataDir string
	LogsDir     string
	DBPath      string
	TokenPath   string

	flock *flock.Flock
}

func NewWorkspace(rootDir string, owner string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir %q: %w", rootDir, err)
	}

	metadata := filepath.Join(root, metadataDir)
	return &Workspace{
		Owner:       owner,
		Root:        root,
		MetadataDir: metadata,
		LogsDir:     filepath.Join(metadata, logsDir),
		DBPath:      filepath.Join(metadata, dbFile),
		TokenPath:   filepath.Join(metadata, tokenFile),
		flock:       flock.New(filepath.Join(metadata, lockFile)),
	}, nil
}

// Setup creates the directory layout and takes the instance lock
func (w *Workspace) Setup() error {
	for _, dir := range []string{w.Root, w.MetadataDir, w.LogsDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create %q: %w", dir, err)
		}
	}
	return w.Lock()
}

// Lock takes the exclusive instance lock, failing fast when another process
// holds it. Two clients draining the same queue would double-send mutations.
func (w *Workspace) Lock() error {
	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %q: %w", w.flock.Path(), err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

// Unlock releases the instance lock
func (w *Workspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}
	return w.flock.Unlock()
}
