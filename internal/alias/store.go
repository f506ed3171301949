// Package alias persists short names for long references ("shorts") in a
// single JSON object document.
//
// Every mutation re-reads the whole document, applies the change and writes
// the whole document back. There is no locking: two lat processes mutating
// the store at the same time race, and the last writer wins in full.
package alias

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gosimple/slug"
	logger "github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned by Remove for a name that is not stored.
	ErrNotFound = errors.New("short not found")

	// ErrInvalidName rejects names that are not slugs.
	ErrInvalidName = errors.New("invalid short name")

	// ErrDecode means the document exists but is not a JSON object of strings.
	ErrDecode = errors.New("corrupt alias document")
)

// Record is one stored name→reference mapping.
type Record struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

// Store is the alias document at a fixed path. It holds no state between
// calls; every operation goes to disk.
type Store struct {
	path string
}

// Open returns a Store for path. The file is not touched until first use.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the document.
func (s *Store) Path() string {
	return s.path
}

// ValidateName reports whether name can be used as a short. The error
// suggests a usable spelling when one exists.
func ValidateName(name string) error {
	if slug.IsSlug(name) {
		return nil
	}
	if suggestion := slug.Make(name); suggestion != "" {
		return fmt.Errorf("%w %q (try %q)", ErrInvalidName, name, suggestion)
	}
	return fmt.Errorf("%w %q", ErrInvalidName, name)
}

// Get returns the reference stored under name. A missing name, or a missing
// document, yields ok == false and no error.
func (s *Store) Get(name string) (string, bool, error) {
	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[name]
	return v, ok, nil
}

// Put stores reference under name, silently replacing any previous value.
func (s *Store) Put(name, reference string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	if old, ok := doc[name]; ok && old != reference {
		logger.Debugf("[alias] Replacing %s: %s -> %s", name, old, reference)
	}
	doc[name] = reference
	return s.save(doc)
}

// List returns every record sorted by name.
func (s *Store) List() ([]Record, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(doc))
	for name, ref := range doc {
		records = append(records, Record{Name: name, Reference: ref})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Remove deletes name. It fails with ErrNotFound if name is not stored.
func (s *Store) Remove(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(doc, name)
	return s.save(doc)
}

// Clear replaces the document with an empty object.
func (s *Store) Clear() error {
	return s.save(map[string]string{})
}

// load reads the document. A missing or empty file is an empty document.
func (s *Store) load() (map[string]string, error) {
	doc := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("reading alias document: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, s.path, err)
	}
	if doc == nil {
		doc = make(map[string]string)
	}
	return doc, nil
}

func (s *Store) save(doc map[string]string) error {
	if err := writeDocument(s.path, doc); err != nil {
		return fmt.Errorf("saving shorts: %w", err)
	}
	return nil
}
