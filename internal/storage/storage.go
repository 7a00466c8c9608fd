// Package storage keeps uploaded media on an afero filesystem and addresses it
// by public URL: <url prefix>/<category>/<name>.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lshigami/examhub/config"
	"github.com/spf13/afero"
)

var ErrInvalidPath = errors.New("invalid media path")

// MediaStore writes uploaded files below root and serves them under urlPrefix.
type MediaStore struct {
	fs        afero.Fs
	root      string
	urlPrefix string
}

func NewMediaStore(fs afero.Fs, root, urlPrefix string) *MediaStore {
	return &MediaStore{
		fs:        fs,
		root:      filepath.Clean(root),
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// NewOsMediaStore stores files on the local disk using the upload settings from config.
func NewOsMediaStore(cfg *config.Config) *MediaStore {
	return NewMediaStore(afero.NewOsFs(), cfg.Storage.Root, cfg.Storage.URLPrefix)
}

// GenerateName returns prefix_<uuid><ext>. ext may be given with or without the dot.
func GenerateName(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + strings.ToLower(ext)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func cleanRelative(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// Save writes r to <root>/<category>/<name> and returns its public URL.
// category may contain sub directories such as "speaking/attempt_1_student_2".
func (s *MediaStore) Save(ctx context.Context, category, name string, r io.Reader) (string, error) {
	rel, err := cleanRelative(path.Join(category, name))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}
	return s.urlPrefix + "/" + rel, nil
}

// Remove deletes the file behind a URL returned by Save. Missing files are ignored.
func (s *MediaStore) Remove(url string) error {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return fmt.Errorf("%w: %q is outside %s", ErrInvalidPath, url, s.urlPrefix)
	}
	rel, err := cleanRelative(strings.TrimPrefix(url, s.urlPrefix+"/"))
	if err != nil {
		return err
	}
	err = s.fs.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Open returns the file behind a URL returned by Save.
func (s *MediaStore) Open(url string) (afero.File, error) {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, url)
	}
	rel, err := cleanRelative(strings.TrimPrefix(url, s.urlPrefix+"/"))
	if err != nil {
		return nil, err
	}
	return s.fs.Open(filepath.Join(s.root, filepath.FromSlash(rel)))
}

// HTTPFs exposes the upload root for static serving.
func (s *MediaStore) HTTPFs() *afero.HttpFs {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.root))
}

func (s *MediaStore) URLPrefix() string {
	return s.urlPrefix
}
