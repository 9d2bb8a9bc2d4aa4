package sessionstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/session"
)

type fileDoc map[string]map[string]string // {context: {key: value}}

// ErrCorruptFile is returned by Get when the store file cannot be decoded.
// Set and Delete replace such a file instead of failing.
var ErrCorruptFile = errors.New("corrupt store file")

// FileStore persists entries in a single JSON document, shared by every portal context.
// Writes replace the document atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	ns   string
}

var _ session.Store = (*FileStore)(nil)

func NewFileStore(path, namespace string) *FileStore {
	return &FileStore{path: path, ns: namespace}
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	val, ok := doc[s.ns][key]
	if !ok {
		return "", session.ErrNoEntry
	}
	return val, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil && errors.Cause(err) != ErrCorruptFile {
		return err
	}
	if doc[s.ns] == nil {
		doc[s.ns] = make(map[string]string)
	}
	doc[s.ns][key] = value
	return s.save(doc)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	switch {
	case errors.Cause(err) == ErrCorruptFile:
		return s.save(doc)
	case err != nil:
		return err
	}
	if _, ok := doc[s.ns][key]; !ok {
		return nil
	}
	delete(doc[s.ns], key)
	if len(doc[s.ns]) == 0 {
		delete(doc, s.ns)
	}
	return s.save(doc)
}

func (s *FileStore) load() (fileDoc, error) {
	doc := make(fileDoc)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, errors.Wrap(err, "reading store file")
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return make(fileDoc), errors.Wrapf(ErrCorruptFile, "decoding %s: %v", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) save(doc fileDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding store file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "creating store dir")
	}
	tmp, err := os.CreateTemp(dir, ".storage-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() // no-op once renamed

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmpPath, s.path), "replacing store file")
}
