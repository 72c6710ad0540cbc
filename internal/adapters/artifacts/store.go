// Package artifacts implements the artifact store on a billy filesystem.
package artifacts

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"go.trai.ch/stencil/internal/codec"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// Instantiator turns the content of a compiled artifact into a runnable unit.
type Instantiator func(identifier string, content []byte) (any, error)

// Option configures a Store.
type Option func(*Store)

// WithInstantiator replaces the default instantiator, which returns a *domain.Artifact.
func WithInstantiator(fn Instantiator) Option {
	return func(s *Store) {
		s.instantiate = fn
	}
}

// Store implements ports.ArtifactStore. Store paths are absolute slash separated paths
// mapped below the root of the filesystem.
type Store struct {
	fs          billy.Filesystem
	instantiate Instantiator
}

// NewStore creates a store on the given filesystem.
func NewStore(bfs billy.Filesystem, opts ...Option) *Store {
	s := &Store{
		fs:          bfs,
		instantiate: defaultInstantiator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewLocalStore creates a store rooted at the given directory.
func NewLocalStore(root string, opts ...Option) *Store {
	return NewStore(osfs.New(root), opts...)
}

// NewMemoryStore creates a store that lives in memory only.
func NewMemoryStore(opts ...Option) *Store {
	return NewStore(memfs.New(), opts...)
}

func defaultInstantiator(identifier string, content []byte) (any, error) {
	return &domain.Artifact{Identifier: identifier, Content: content}, nil
}

// Open returns a reader for the artifact at p.
func (s *Store) Open(p string) (io.ReadCloser, error) {
	f, err := s.fs.Open(rel(p))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactReadFailed.Error()), "path", p)
	}
	return f, nil
}

// Create returns a writer replacing the artifact at p.
func (s *Store) Create(p string) (io.WriteCloser, error) {
	name := rel(p)
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", p)
		}
	}
	f, err := s.fs.Create(name)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", p)
	}
	return f, nil
}

// LastModified returns the modification time of the artifact at p.
func (s *Store) LastModified(p string) (time.Time, bool, error) {
	info, err := s.fs.Stat(rel(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, zerr.With(zerr.Wrap(err, domain.ErrArtifactReadFailed.Error()), "path", p)
	}
	return info.ModTime(), true, nil
}

// Delete removes everything at and below prefix. The store root itself cannot be deleted.
func (s *Store) Delete(prefix string) error {
	name := rel(prefix)
	if name == "." {
		return zerr.With(domain.ErrArtifactDeleteFailed, "path", prefix)
	}
	return s.remove(name)
}

func (s *Store) remove(name string) error {
	if err := util.RemoveAll(s.fs, name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactDeleteFailed.Error()), "path", name)
	}
	return nil
}

// Load reads the compiled artifact of identifier and instantiates it.
func (s *Store) Load(_ context.Context, identifier string) (any, error) {
	p := codec.ArtifactPath(identifier)
	content, err := util.ReadFile(s.fs, rel(p))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactLoadFailed.Error()), "identifier", identifier)
	}
	unit, err := s.instantiate(identifier, content)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactLoadFailed.Error()), "identifier", identifier)
	}
	return unit, nil
}

// ReadAll returns the content of the artifact at p.
func (s *Store) ReadAll(p string) ([]byte, error) {
	content, err := util.ReadFile(s.fs, rel(p))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactReadFailed.Error()), "path", p)
	}
	return content, nil
}

// rel maps a store path to a path relative to the filesystem root.
func rel(p string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}
