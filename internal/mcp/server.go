// Package mcp exposes snapshot operations as MCP tools over stdio, so an
// agent triaging a failing provisioning test can inspect and re-check the
// recorded expectations directly.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"snapcheck/internal/logging"
	"snapcheck/internal/match"
	"snapcheck/internal/snapshot"
	"snapcheck/internal/verify"
)

// Server wraps the MCP SDK server around a fixture directory.
type Server struct {
	MCPServer  *sdkmcp.Server
	FixtureDir string
}

// NewServer creates an MCP server rooted at fixtureDir. Relative snapshot
// paths in tool calls resolve against it.
func NewServer(fixtureDir string) *Server {
	s := &Server{FixtureDir: fixtureDir}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "snapcheck", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_tests",
		Description: "List snapshot files under the fixture directory and the test identifiers recorded in each.",
	}, s.handleListTests)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_record",
		Description: "Get one recorded snapshot (recorded-date and recorded-content) by snapshot file and test identifier.",
	}, s.handleGetRecord)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "verify_content",
		Description: "Compare fresh response content (JSON) against a recorded snapshot. Placeholder tokens match as pattern slots.",
	}, s.handleVerifyContent)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "validate_file",
		Description: "Validate a snapshot file: strict parse, leaf types, placeholder grammar, round-trip stability.",
	}, s.handleValidateFile)
}

// --- Tool input/output types ---

type listTestsInput struct {
	File string `json:"file,omitempty" jsonschema:"snapshot file path; empty lists every *.snapshot.json under the fixture dir"`
}

type fileTests struct {
	File  string   `json:"file"`
	Tests []string `json:"tests"`
}

type listTestsOutput struct {
	Files []fileTests `json:"files"`
}

type getRecordInput struct {
	File   string `json:"file" jsonschema:"snapshot file path"`
	TestID string `json:"test_id" jsonschema:"fully-qualified test identifier"`
}

type getRecordOutput struct {
	RecordedDate string `json:"recorded_date"`
	RecordJSON   string `json:"record_json"`
}

type verifyContentInput struct {
	File        string `json:"file" jsonschema:"snapshot file path"`
	TestID      string `json:"test_id" jsonschema:"fully-qualified test identifier"`
	ContentJSON string `json:"content_json" jsonschema:"freshly captured content as a JSON object"`
}

type verifyContentOutput struct {
	OK         bool              `json:"ok"`
	Mismatches []string          `json:"mismatches,omitempty"`
	Bindings   map[string]string `json:"bindings,omitempty"`
}

type validateFileInput struct {
	File string `json:"file" jsonschema:"snapshot file path"`
}

type validateFileOutput struct {
	OK       bool     `json:"ok"`
	Records  int      `json:"records"`
	Problems []string `json:"problems,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleListTests(ctx context.Context, _ *sdkmcp.CallToolRequest, input listTestsInput) (*sdkmcp.CallToolResult, listTestsOutput, error) {
	var paths []string
	if input.File != "" {
		paths = []string{s.resolve(input.File)}
	} else {
		err := filepath.WalkDir(s.FixtureDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".snapshot.json") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, listTestsOutput{}, fmt.Errorf("walk fixture dir: %w", err)
		}
	}

	out := listTestsOutput{}
	for _, path := range paths {
		f, err := snapshot.Load(path)
		if err != nil {
			return nil, listTestsOutput{}, err
		}
		rel := path
		if r, err := filepath.Rel(s.FixtureDir, path); err == nil {
			rel = r
		}
		out.Files = append(out.Files, fileTests{File: rel, Tests: f.TestIDs()})
	}
	return nil, out, nil
}

func (s *Server) handleGetRecord(ctx context.Context, _ *sdkmcp.CallToolRequest, input getRecordInput) (*sdkmcp.CallToolResult, getRecordOutput, error) {
	f, err := snapshot.Load(s.resolve(input.File))
	if err != nil {
		return nil, getRecordOutput{}, err
	}
	rec, err := f.Lookup(input.TestID)
	if err != nil {
		return nil, getRecordOutput{}, err
	}
	// Escaping off so placeholder tokens stay readable as <label:N>,
	// matching snapshot.File.Bytes.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, getRecordOutput{}, fmt.Errorf("marshal record: %w", err)
	}
	return nil, getRecordOutput{
		RecordedDate: rec.RecordedDate,
		RecordJSON:   strings.TrimSuffix(buf.String(), "\n"),
	}, nil
}

func (s *Server) handleVerifyContent(ctx context.Context, _ *sdkmcp.CallToolRequest, input verifyContentInput) (*sdkmcp.CallToolResult, verifyContentOutput, error) {
	logger := logging.New("mcp")

	f, err := snapshot.Load(s.resolve(input.File))
	if err != nil {
		return nil, verifyContentOutput{}, err
	}
	rec, err := f.Lookup(input.TestID)
	if err != nil {
		return nil, verifyContentOutput{}, err
	}

	var fresh map[string]any
	if err := json.Unmarshal([]byte(input.ContentJSON), &fresh); err != nil {
		return nil, verifyContentOutput{}, fmt.Errorf("content_json: %w", err)
	}

	res := match.Compare(rec.RecordedContent, fresh)
	out := verifyContentOutput{OK: res.OK(), Bindings: res.Bindings}
	for _, m := range res.Mismatches {
		out.Mismatches = append(out.Mismatches, m.String())
	}
	logger.Info("verify_content", "test_id", input.TestID, "ok", out.OK, "mismatches", len(out.Mismatches))
	return nil, out, nil
}

func (s *Server) handleValidateFile(ctx context.Context, _ *sdkmcp.CallToolRequest, input validateFileInput) (*sdkmcp.CallToolResult, validateFileOutput, error) {
	report, err := verify.ValidateFile(s.resolve(input.File))
	if err != nil {
		return nil, validateFileOutput{}, err
	}
	out := validateFileOutput{OK: report.OK(), Records: report.Records}
	for _, p := range report.Problems {
		out.Problems = append(out.Problems, p.String())
	}
	return nil, out, nil
}

func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) || s.FixtureDir == "" {
		return path
	}
	return filepath.Join(s.FixtureDir, path)
}
