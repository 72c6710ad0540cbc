// Package content implements the content repository on a billy filesystem.
package content

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentRepository = (*Repository)(nil)

// Repository serves content nodes from a filesystem. Content paths are absolute slash
// separated paths below the filesystem root.
type Repository struct {
	fs          billy.Filesystem
	searchPaths []string
}

// NewRepository creates a repository on bfs. Relative names are looked up under each of
// the search paths, in order.
func NewRepository(bfs billy.Filesystem, searchPaths []string) *Repository {
	return &Repository{fs: bfs, searchPaths: searchPaths}
}

// NewLocalRepository creates a repository rooted at the given directory.
func NewLocalRepository(root string, searchPaths []string) *Repository {
	return NewRepository(osfs.New(root), searchPaths)
}

// Stat returns the file at p. Directories are not content nodes.
func (r *Repository) Stat(_ context.Context, p string) (domain.Location, bool, error) {
	clean := path.Clean("/" + p)
	info, err := r.fs.Stat(strings.TrimPrefix(clean, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Location{}, false, nil
		}
		return domain.Location{}, false, zerr.With(zerr.Wrap(err, domain.ErrContentLookupFailed.Error()), "path", p)
	}
	if info.IsDir() {
		return domain.Location{}, false, nil
	}
	return domain.Location{Path: clean, Modified: info.ModTime()}, true, nil
}

// Read returns the content of the file at p.
func (r *Repository) Read(_ context.Context, p string) ([]byte, error) {
	content, err := util.ReadFile(r.fs, strings.TrimPrefix(path.Clean("/"+p), "/"))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrContentReadFailed.Error()), "path", p)
	}
	return content, nil
}

// Resolve looks name up. Absolute names are taken as is. Relative names are tried next
// to base, the path of the calling script, and then under every search path.
func (r *Repository) Resolve(ctx context.Context, base, name string) (domain.Location, bool, error) {
	for _, candidate := range Candidates(base, name, r.searchPaths) {
		loc, ok, err := r.Stat(ctx, candidate)
		if err != nil || ok {
			return loc, ok, err
		}
	}
	return domain.Location{}, false, nil
}

// Candidates returns the paths name may resolve to, in lookup order.
func Candidates(base, name string, searchPaths []string) []string {
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "/") {
		return []string{path.Clean(name)}
	}
	candidates := make([]string, 0, len(searchPaths)+1)
	if base != "" {
		candidates = append(candidates, path.Join(path.Dir(path.Clean("/"+base)), name))
	}
	for _, sp := range searchPaths {
		c := path.Join(sp, name)
		// Names escaping a search path with ".." are not searched.
		if !strings.HasPrefix(c, strings.TrimSuffix(sp, "/")+"/") {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}
