package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

var ErrNotFound = errors.New("document not found")

// Storage resolves a stored upload by name. The loader only reads.
type Storage interface {
	Resolve(ctx context.Context, name string) ([]byte, error)
	Locator(name string) string
}

// Uploader is the write side used by the upload endpoint.
type Uploader interface {
	Put(ctx context.Context, name string, content []byte) (string, error)
}

// AFSStorage keeps uploads under a base URL understood by viant/afs
// (file://, s3://, gs://).
type AFSStorage struct {
	fs      afs.Service
	baseURL string
}

func NewAFSStorage(baseURL string) *AFSStorage {
	return &AFSStorage{fs: afs.New(), baseURL: strings.TrimRight(baseURL, "/")}
}

// SafeName strips any directory component so callers cannot escape the base URL.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean("/" + name))
	if name == "/" || name == "." {
		return ""
	}
	return name
}

func (s *AFSStorage) Locator(name string) string {
	return url.Join(s.baseURL, SafeName(name))
}

func (s *AFSStorage) Resolve(ctx context.Context, name string) ([]byte, error) {
	if SafeName(name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	location := s.Locator(name)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	return s.fs.DownloadWithURL(ctx, location)
}

func (s *AFSStorage) Put(ctx context.Context, name string, content []byte) (string, error) {
	safe := SafeName(name)
	if safe == "" {
		return "", errors.New("empty document name")
	}
	location := s.Locator(safe)
	if err := s.fs.Upload(ctx, location, 0o640, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("upload %s: %w", location, err)
	}
	return safe, nil
}
