package snapshot

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sample = `{
  "tests/test_acme.py::TestAcme::test_widget": {
    "recorded-date": "14-04-2023, 14:25:22",
    "recorded-content": {
      "describe_widget": {
        "Widget": {
          "Name": "<widget-name:1>",
          "Count": 3,
          "Enabled": true,
          "Comment": null,
          "Zones": ["a", "b"]
        },
        "ResponseMetadata": {
          "HTTPStatusCode": 200,
          "HTTPHeaders": {"content-type": "application/json"}
        }
      }
    }
  }
}`

func TestParse_Lookup(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("want 1 record, got %d", f.Len())
	}

	rec, err := f.Lookup("tests/test_acme.py::TestAcme::test_widget")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.RecordedDate != "14-04-2023, 14:25:22" {
		t.Errorf("recorded-date = %q", rec.RecordedDate)
	}
	if _, err := time.Parse(DateLayout, rec.RecordedDate); err != nil {
		t.Errorf("recorded-date does not match layout: %v", err)
	}

	op, err := rec.Operation("describe_widget")
	if err != nil {
		t.Fatalf("Operation: %v", err)
	}
	got, err := LeafAt(op, "Widget", "Count")
	if err != nil {
		t.Fatalf("LeafAt: %v", err)
	}
	if got != float64(3) {
		t.Errorf("Widget.Count = %v (%T), want 3", got, got)
	}
}

func TestLookup_NotFound(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = f.Lookup("tests/test_acme.py::TestAcme::test_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestParse_DuplicateKeys(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"top level", `{"a": {}, "a": {}}`},
		{"nested", `{"t": {"recorded-date": "x", "recorded-content": {"op": {"K": 1, "K": 2}}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil || !strings.Contains(err.Error(), "duplicate key") {
				t.Errorf("want duplicate key error, got %v", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"top-level array", `[1, 2]`},
		{"trailing data", `{"a": {}} {"b": {}}`},
		{"record not object", `{"t": 42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Error("want parse error, got nil")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	f2, err := Parse(data)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}

	id := "tests/test_acme.py::TestAcme::test_widget"
	r1, _ := f.Lookup(id)
	r2, _ := f2.Lookup(id)
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("round-trip changed the tree (-first +second):\n%s", diff)
	}

	// Serialization itself is stable.
	data2, err := f2.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != string(data2) {
		t.Error("serialization is not byte-stable across a round trip")
	}
}

func TestBytes_TokensUnescaped(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !strings.Contains(string(data), "<widget-name:1>") {
		t.Errorf("serialized fixture must keep tokens readable:\n%s", data)
	}
	if strings.Contains(string(data), "\\u003c") {
		t.Error("serialized fixture HTML-escapes angle brackets")
	}
}

func TestSaveLoad(t *testing.T) {
	f := NewFile()
	f.Put("tests/test_x.py::test_one", NewRecord(Content{
		"describe_thing": map[string]any{"Status": "ACTIVE"},
	}))

	path := filepath.Join(t.TempDir(), "nested", "test_x.snapshot.json")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, err := loaded.Lookup("tests/test_x.py::test_one")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := time.Parse(DateLayout, rec.RecordedDate); err != nil {
		t.Errorf("recorded-date %q not in layout: %v", rec.RecordedDate, err)
	}
	got, err := LeafAt(rec.RecordedContent, "describe_thing", "Status")
	if err != nil || got != "ACTIVE" {
		t.Errorf("describe_thing.Status = %v, %v", got, err)
	}
}

func TestWalk_PathsAndOrder(t *testing.T) {
	tree := map[string]any{
		"b": map[string]any{"x": float64(1)},
		"a": []any{"s", map[string]any{"k": true}},
	}
	var paths []string
	err := Walk(tree, func(path string, v any) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"a", "a[0]", "a[1]", "a[1].k", "b", "b.x"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}
}

func TestIsLeaf(t *testing.T) {
	leaves := []any{"s", float64(2), true, nil}
	for _, v := range leaves {
		if !IsLeaf(v) {
			t.Errorf("IsLeaf(%v) = false, want true", v)
		}
	}
	if IsLeaf(map[string]any{}) || IsLeaf([]any{}) {
		t.Error("interior nodes must not be leaves")
	}
}

func TestTestIDs_Sorted(t *testing.T) {
	f := NewFile()
	f.Put("z", NewRecord(Content{}))
	f.Put("a", NewRecord(Content{}))
	f.Put("m", NewRecord(Content{}))
	want := []string{"a", "m", "z"}
	if diff := cmp.Diff(want, f.TestIDs()); diff != "" {
		t.Errorf("TestIDs (-want +got):\n%s", diff)
	}
}
