// Package uploads keeps material photos on local disk. Files are stored
// under generated keys so two uploads with the same name never collide;
// the original name is kept by the caller for display.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/upcycle/internal/imaging"
)

// ErrInvalidKey is returned for keys that were not produced by Save.
var ErrInvalidKey = errors.New("invalid upload key")

// keyPattern matches the keys Save generates: a UUID and an extension.
var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[a-z]+$`)

// Store saves processed photos into a directory.
type Store struct {
	Dir string
}

// NewStore creates dir if needed and returns a Store writing into it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Saved describes a stored photo.
type Saved struct {
	Key          string
	OriginalName string
}

// Save processes the photo in r and writes it under a new unique key.
func (s *Store) Save(r io.Reader, originalName string) (*Saved, error) {
	img, err := imaging.Process(r)
	if err != nil {
		return nil, err
	}

	key := uuid.NewString() + img.Ext
	path := filepath.Join(s.Dir, key)

	// O_EXCL: a key is never reused, even if the UUID source misbehaves.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := f.Write(img.Data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing upload file: %w", err)
	}

	return &Saved{Key: key, OriginalName: SanitizeName(originalName)}, nil
}

// Path returns the file path for a key returned by Save.
func (s *Store) Path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Dir, key), nil
}

// Delete removes a stored photo. Missing files are not an error.
func (s *Store) Delete(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client file name to a safe display name: no
// directories, only letters, digits, dot, dash and underscore.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeName.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	return name
}
