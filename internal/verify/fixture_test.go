package verify

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"snapcheck/internal/snapshot"
)

// fixturePath resolves a path under the repo's fixtures/ directory.
func fixturePath(name string) string {
	_, f, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(f)))
	return filepath.Join(root, "fixtures", name)
}

const (
	domainTest    = "tests/integration/test_opensearch.py::TestOpensearchProvider::test_domain"
	altTypesTest  = "tests/integration/test_opensearch.py::TestOpensearchProvider::test_domain_with_alternative_types"
	opensearchFix = "opensearch/test_opensearch.snapshot.json"
)

func TestOpensearchFixture_Validates(t *testing.T) {
	report, err := ValidateFile(fixturePath(opensearchFix))
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if !report.OK() {
		t.Errorf("shipped fixture has problems: %v", report.Problems)
	}
	if report.Records != 2 {
		t.Errorf("Records = %d, want 2", report.Records)
	}
}

func TestOpensearchFixture_DomainLiterals(t *testing.T) {
	f, err := snapshot.Load(fixturePath(opensearchFix))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, err := f.Lookup(domainTest)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	engine, err := snapshot.LeafAt(rec.RecordedContent, "describe_domain", "DomainStatus", "EngineVersion")
	if err != nil {
		t.Fatalf("LeafAt: %v", err)
	}
	if engine != "OpenSearch_2.5" {
		t.Errorf("EngineVersion = %v, want OpenSearch_2.5", engine)
	}

	status, err := snapshot.LeafAt(rec.RecordedContent, "describe_domain", "ResponseMetadata", "HTTPStatusCode")
	if err != nil || status != float64(200) {
		t.Errorf("HTTPStatusCode = %v, %v", status, err)
	}
}

func TestOpensearchFixture_AlternativeTypesLiterals(t *testing.T) {
	f, err := snapshot.Load(fixturePath(opensearchFix))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, err := f.Lookup(altTypesTest)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	zoneAware, err := snapshot.LeafAt(rec.RecordedContent,
		"describe_domain", "DomainStatus", "ClusterConfig", "ZoneAwarenessEnabled")
	if err != nil || zoneAware != true {
		t.Errorf("ZoneAwarenessEnabled = %v, %v", zoneAware, err)
	}

	azCount, err := snapshot.LeafAt(rec.RecordedContent,
		"describe_domain", "DomainStatus", "ClusterConfig", "ZoneAwarenessConfig", "AvailabilityZoneCount")
	if err != nil || azCount != float64(2) {
		t.Errorf("AvailabilityZoneCount = %v, %v", azCount, err)
	}
}

func TestOpensearchFixture_VerifiesAgainstConcreteCapture(t *testing.T) {
	f, err := snapshot.Load(fixturePath(opensearchFix))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, err := f.Lookup(domainTest)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	// Simulate a fresh capture by substituting concrete values into every
	// placeholder slot of the recorded tree.
	concrete := map[string]string{
		"<partition>":         "aws",
		"<region>":            "eu-central-1",
		"<account-id>":        "000000000000",
		"<domain-name:1>":     "domain-56e2e6da",
		"<change-id:1>":       "9f4a2e1c-7b3d-4e5f-8a6b-1c2d3e4f5a6b",
		"<domain-endpoint:1>": "domain-56e2e6da.eu-central-1.es.example.com",
		"<content-length>":    "1874",
		"<date>":              "Fri, 14 Apr 2023 14:25:22 GMT",
		"<request-id>":        "A1B2C3D4E5F6G7H8",
	}
	fresh := substitute(rec.RecordedContent, concrete).(map[string]any)

	v := &Verifier{File: f, Mode: ModeVerify}
	out, err := v.Run(domainTest, fresh)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Result != "pass" {
		t.Errorf("result = %q, mismatches: %v", out.Result, out.Match.Mismatches)
	}
}

func substitute(v any, repl map[string]string) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = substitute(child, repl)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, elem := range node {
			out[i] = substitute(elem, repl)
		}
		return out
	case string:
		s := node
		for tok, val := range repl {
			s = strings.ReplaceAll(s, tok, val)
		}
		return s
	default:
		return v
	}
}
