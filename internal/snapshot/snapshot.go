// Package snapshot defines the on-disk golden-file format for recorded API
// responses: a JSON mapping from fully-qualified test identifier to a record
// holding the recording timestamp and the captured response content.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DateLayout is the recorded-date timestamp layout used in snapshot files.
const DateLayout = "02-01-2006, 15:04:05"

// ErrNotFound is returned by Lookup when no record exists for a test identifier.
var ErrNotFound = errors.New("no record for test identifier")

// Content is a captured response tree: operation name → structured response.
// Leaves are string, float64, bool, or nil; interior nodes are
// map[string]any or []any.
type Content = map[string]any

// Record is one recorded snapshot: the timestamp of the recording run and
// the content captured during it.
type Record struct {
	RecordedDate    string  `json:"recorded-date"`
	RecordedContent Content `json:"recorded-content"`
}

// NewRecord returns a record for content, stamped with the current time.
func NewRecord(content Content) *Record {
	return &Record{
		RecordedDate:    time.Now().Format(DateLayout),
		RecordedContent: content,
	}
}

// Operation returns the captured response for one API operation name.
func (r *Record) Operation(name string) (Content, error) {
	v, ok := r.RecordedContent[name]
	if !ok {
		return nil, fmt.Errorf("operation %q not in recorded content", name)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("operation %q: recorded value is %T, not an object", name, v)
	}
	return m, nil
}

// File is a parsed snapshot file: test identifier → record.
type File struct {
	records map[string]*Record
}

// NewFile returns an empty snapshot file.
func NewFile() *File {
	return &File{records: map[string]*Record{}}
}

// Load reads and parses the snapshot file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes snapshot data. Unlike plain json.Unmarshal it rejects
// duplicate keys at every nesting level: a duplicate would silently shadow
// an expectation and mask fixture corruption.
func Parse(data []byte) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	root, err := decodeValue(dec, "$")
	if err != nil {
		return nil, err
	}
	// Reject trailing garbage after the top-level value.
	if dec.More() {
		return nil, errors.New("trailing data after top-level object")
	}
	top, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level is %T, want object", root)
	}

	f := NewFile()
	for testID, v := range top {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: record is %T, want object", testID, v)
		}
		rec := &Record{}
		if d, ok := obj["recorded-date"].(string); ok {
			rec.RecordedDate = d
		}
		if c, ok := obj["recorded-content"].(map[string]any); ok {
			rec.RecordedContent = c
		}
		f.records[testID] = rec
	}
	return f, nil
}

// decodeValue builds a JSON tree by hand from decoder tokens so that
// duplicate object keys can be detected. path is for error messages.
func decodeValue(dec *json.Decoder, path string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := map[string]any{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				key := keyTok.(string)
				if _, dup := obj[key]; dup {
					return nil, fmt.Errorf("%s: duplicate key %q", path, key)
				}
				val, err := decodeValue(dec, path+"."+key)
				if err != nil {
					return nil, err
				}
				obj[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return obj, nil
		case '[':
			var arr []any
			for dec.More() {
				val, err := decodeValue(dec, fmt.Sprintf("%s[%d]", path, len(arr)))
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if arr == nil {
				arr = []any{}
			}
			return arr, nil
		}
		return nil, fmt.Errorf("%s: unexpected delimiter %v", path, t)
	default:
		// string, float64, bool, or nil — already the tree leaf shape.
		return tok, nil
	}
}

// Lookup returns the record for testID, or ErrNotFound.
func (f *File) Lookup(testID string) (*Record, error) {
	rec, ok := f.records[testID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", testID, ErrNotFound)
	}
	return rec, nil
}

// Put inserts or replaces the record for testID.
func (f *File) Put(testID string, rec *Record) {
	f.records[testID] = rec
}

// Len returns the number of records.
func (f *File) Len() int { return len(f.records) }

// TestIDs returns all test identifiers in sorted order.
func (f *File) TestIDs() []string {
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bytes serializes the file deterministically: sorted keys (stdlib map
// marshalling), two-space indentation, trailing newline. HTML escaping is
// off so placeholder tokens stay readable as <label:N>, not < escapes.
// Serializing and re-parsing the result yields an identical tree.
func (f *File) Bytes() ([]byte, error) {
	out := make(map[string]*Record, len(f.records))
	for id, rec := range f.records {
		out[id] = rec
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the file to path, creating parent directories as needed.
func (f *File) Save(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
