// Package store persists the folder-to-organization identity table.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"cardflow/txn-uploader/internal/fileutils"
	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"
)

// wrapperKey is the top-level key of the older wrapped file layout.
const wrapperKey = "organization_mappings"

// Entry is one row of the mapping table.
type Entry struct {
	Folder   string
	Identity models.Identity
}

// MappingStore is the JSON-backed folder to identity table. Lookups are
// case-insensitive; keys are stored and written back verbatim.
type MappingStore struct {
	path   string
	scheme models.Scheme
	logger logging.Logger

	keys    []string
	entries map[string]models.Identity
	index   map[string]string

	// wrapped files keep their other top-level keys in their original order.
	wrapped  bool
	topKeys  []string
	topLevel map[string]json.RawMessage

	// corrupt is set when the file existed but could not be parsed; such a
	// file is never overwritten.
	corrupt bool
}

// NewMappingStore creates an empty store bound to path. Call Load to read it.
func NewMappingStore(path string, scheme models.Scheme, logger logging.Logger) *MappingStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &MappingStore{
		path:   path,
		scheme: scheme,
		logger: logger,
	}
	s.reset()
	return s
}

// Path returns the backing file.
func (s *MappingStore) Path() string {
	return s.path
}

// Load reads the mapping file. A missing file yields an empty table. A
// malformed file also yields an empty table and is reported through the
// returned error; the store stays usable either way.
func (s *MappingStore) Load() error {
	s.reset()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Organization mapping file not found, starting empty",
				logging.Field{Key: logging.FieldMappingFile, Value: s.path})
			return nil
		}
		s.logger.WithError(err).Error("Failed to read organization mapping file",
			logging.Field{Key: logging.FieldMappingFile, Value: s.path})
		s.corrupt = true
		return fmt.Errorf("error reading mapping file: %w", err)
	}

	if err := s.decode(data); err != nil {
		s.reset()
		s.corrupt = true
		s.logger.WithError(err).Error("Organization mapping file is malformed, starting empty",
			logging.Field{Key: logging.FieldMappingFile, Value: s.path})
		return fmt.Errorf("error parsing mapping file %s: %w", s.path, err)
	}

	s.logger.Debug("Loaded organization mappings",
		logging.Field{Key: logging.FieldMappingFile, Value: s.path},
		logging.Field{Key: logging.FieldCount, Value: len(s.keys)})
	return nil
}

func (s *MappingStore) reset() {
	s.keys = nil
	s.entries = make(map[string]models.Identity)
	s.index = make(map[string]string)
	s.corrupt = false
	s.useDefaultLayout()
}

// useDefaultLayout sets the layout a new file is written in: legacy tables
// live under the organization_mappings key, token tables are flat.
func (s *MappingStore) useDefaultLayout() {
	s.wrapped = s.scheme == models.SchemeLegacy
	s.topKeys = nil
	s.topLevel = map[string]json.RawMessage{}
	if s.wrapped {
		s.topKeys = []string{wrapperKey}
	}
}

func (s *MappingStore) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	keys, values, err := decodeObject(data)
	if err != nil {
		return err
	}

	table, tableKeys := values, keys
	s.wrapped = false
	s.topKeys = nil
	if raw, ok := values[wrapperKey]; ok {
		innerKeys, inner, err := decodeObject(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", wrapperKey, err)
		}
		s.wrapped = true
		s.topKeys = keys
		s.topLevel = values
		table, tableKeys = inner, innerKeys
	}

	for _, folder := range tableKeys {
		var identity models.Identity
		if err := json.Unmarshal(table[folder], &identity); err != nil {
			return fmt.Errorf("entry %q: %w", folder, err)
		}
		s.put(folder, identity)
	}
	return nil
}

// decodeObject parses a JSON object keeping key order.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("unexpected data after the top-level object")
	}
	return keys, values, nil
}

func (s *MappingStore) put(folder string, identity models.Identity) {
	lower := strings.ToLower(folder)
	if existing, ok := s.index[lower]; ok {
		if existing != folder {
			s.logger.Warn("Duplicate organization mapping differing only in case, keeping the first",
				logging.Field{Key: logging.FieldFolder, Value: folder})
			return
		}
		s.entries[folder] = identity
		return
	}
	s.index[lower] = folder
	s.keys = append(s.keys, folder)
	s.entries[folder] = identity
}

// Resolve looks a folder up case-insensitively.
func (s *MappingStore) Resolve(folder string) (models.Identity, bool) {
	key, ok := s.index[strings.ToLower(folder)]
	if !ok {
		return models.Identity{}, false
	}
	return s.entries[key], true
}

// EnsureProvisioned adds a placeholder for an unseen folder and writes the
// file immediately. It reports whether an entry was added. A folder already
// present under any casing is left untouched.
func (s *MappingStore) EnsureProvisioned(folder string) (bool, error) {
	if _, ok := s.Resolve(folder); ok {
		return false, nil
	}

	s.put(folder, models.PlaceholderIdentity(s.scheme, folder))
	s.logger.Info("Added placeholder organization mapping",
		logging.Field{Key: logging.FieldFolder, Value: folder},
		logging.Field{Key: logging.FieldScheme, Value: string(s.scheme)})

	if err := s.Persist(); err != nil {
		return true, err
	}
	return true, nil
}

// Persist overwrites the file with the full table, two-space indented.
func (s *MappingStore) Persist() error {
	if s.corrupt {
		return &ingesterror.MappingPersistError{
			Path: s.path,
			Err:  errors.New("existing file could not be parsed, refusing to overwrite it"),
		}
	}

	data, err := s.encode()
	if err != nil {
		return &ingesterror.MappingPersistError{Path: s.path, Err: err}
	}

	if err := fileutils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return &ingesterror.MappingPersistError{Path: s.path, Err: err}
	}

	s.logger.Debug("Organization mappings saved",
		logging.Field{Key: logging.FieldMappingFile, Value: s.path},
		logging.Field{Key: logging.FieldCount, Value: len(s.keys)})
	return nil
}

func (s *MappingStore) encode() ([]byte, error) {
	table := make([]orderedField, 0, len(s.keys))
	for _, folder := range s.keys {
		raw, err := json.Marshal(s.entries[folder])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", folder, err)
		}
		table = append(table, orderedField{key: folder, value: raw})
	}
	body, err := marshalOrdered(table)
	if err != nil {
		return nil, err
	}

	if s.wrapped {
		top := make([]orderedField, 0, len(s.topKeys))
		for _, key := range s.topKeys {
			value := s.topLevel[key]
			if key == wrapperKey {
				value = body
			}
			top = append(top, orderedField{key: key, value: value})
		}
		body, err = marshalOrdered(top)
		if err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

type orderedField struct {
	key   string
	value json.RawMessage
}

func marshalOrdered(fields []orderedField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Entries lists the table sorted case-insensitively by folder.
func (s *MappingStore) Entries() []Entry {
	out := make([]Entry, 0, len(s.keys))
	for _, folder := range s.keys {
		out = append(out, Entry{Folder: folder, Identity: s.entries[folder]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Folder) < strings.ToLower(out[j].Folder)
	})
	return out
}

// Unresolved lists the folders whose entry is still a placeholder or does
// not match the configured scheme.
func (s *MappingStore) Unresolved() []string {
	var out []string
	for _, e := range s.Entries() {
		if !e.Identity.Matches(s.scheme) {
			out = append(out, e.Folder)
		}
	}
	return out
}

// Len returns the number of entries.
func (s *MappingStore) Len() int {
	return len(s.keys)
}
