// Package ocfl reads OCFL repositories from the local filesystem: the
// repository marker, object discovery, inventories and version state.
package ocfl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/fsutil"
)

const (
	RepositoryMarker = "0=ocfl_1.0"
	ObjectMarker     = "0=ocfl_object_1.0"
	InventoryFile    = "inventory.json"
)

var errNotLoaded = errors.New("object inventory not loaded")

// ErrObjectNotFound is returned by FindObject when no object carries the id.
var ErrObjectNotFound = errors.New("object not found")

// Repository is an OCFL storage root.
type Repository struct {
	root string
}

// NewRepository returns the repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{root: dir}
}

// Root returns the storage root directory.
func (r *Repository) Root() string {
	return r.root
}

// IsRepository reports whether the storage root carries the repository marker.
func (r *Repository) IsRepository() bool {
	info, err := os.Stat(filepath.Join(r.root, RepositoryMarker))
	return err == nil && !info.IsDir()
}

// Object returns the object stored at relPath below the storage root.
func (r *Repository) Object(relPath string) *Object {
	return NewObject(filepath.Join(r.root, relPath))
}

// TopLevel returns the top-level directories of the storage root. They are
// the unit of work the executor partitions.
func (r *Repository) TopLevel() ([]string, error) {
	return fsutil.TopLevelDirs(r.root)
}

// Discover returns the object roots found below dir.
func (r *Repository) Discover(ctx context.Context, dir string) ([]*Object, error) {
	dirs, err := fsutil.FindDirsWithFile(ctx, dir, ObjectMarker)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	objects := make([]*Object, len(dirs))
	for i, d := range dirs {
		objects[i] = NewObject(d)
	}
	return objects, nil
}

// FindObject walks the repository for the object whose inventory id is id.
func (r *Repository) FindObject(ctx context.Context, id string) (*Object, error) {
	logger := ctxlog.FromContext(ctx)
	objects, err := r.Discover(ctx, r.root)
	if err != nil {
		return nil, err
	}
	for _, o := range objects {
		if err := o.Load(); err != nil {
			logger.Debug("Skipping unreadable object.", "path", o.Root(), "error", err)
			continue
		}
		if o.ID() == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
}
