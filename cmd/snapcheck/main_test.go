package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const fixtureJSON = `{
  "tests/test_widget.py::TestWidget::test_create": {
    "recorded-date": "14-04-2023, 14:25:22",
    "recorded-content": {
      "create_widget": {
        "Arn": "arn:<partition>:widgets:<region>:<account-id>:widget/<widget-name:1>",
        "Name": "<widget-name:1>",
        "ResponseMetadata": {
          "HTTPHeaders": {
            "content-type": "application/json"
          },
          "HTTPStatusCode": 200
        }
      }
    }
  }
}
`

const captureJSON = `{
  "create_widget": {
    "Arn": "arn:aws:widgets:eu-west-1:111122223333:widget/w-ab12cd",
    "Name": "w-ab12cd",
    "ResponseMetadata": {
      "HTTPHeaders": {
        "content-type": "application/json"
      },
      "HTTPStatusCode": 200
    }
  }
}
`

const rulesYAML = `rules:
  - tests: "*"
    bare: [partition, region, account-id]
    transformers:
      - type: arn
      - type: key-value
        key: Name
        label: widget-name
`

const widgetTestID = "tests/test_widget.py::TestWidget::test_create"

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// resetFlags restores every flag to its default value. The flag variables
// are package-level, so values set by one Execute call would otherwise
// leak into the next; a real CLI invocation starts from a fresh process.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	fix := writeFile(t, dir, "widgets.snapshot.json", fixtureJSON)

	out, err := runCLI(t, "validate", fix)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "widgets.snapshot.json") {
		t.Errorf("output missing fixture name:\n%s", out)
	}
}

func TestValidateCommand_BadFixture(t *testing.T) {
	dir := t.TempDir()
	fix := writeFile(t, dir, "bad.snapshot.json", `{"t": {"recorded-date": "x"}}`)

	out, err := runCLI(t, "validate", fix)
	if err == nil {
		t.Fatalf("expected validate failure, got:\n%s", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	fix := writeFile(t, dir, "widgets.snapshot.json", fixtureJSON)
	cap := writeFile(t, dir, "capture.json", captureJSON)

	out, err := runCLI(t, "verify",
		"--snapshot", fix, "--test", widgetTestID, "-f", cap, "--no-history")
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
}

func TestVerifyCommand_Mismatch(t *testing.T) {
	dir := t.TempDir()
	fix := writeFile(t, dir, "widgets.snapshot.json", fixtureJSON)
	// Name disagrees with the widget-name bound inside the Arn.
	bad := strings.Replace(captureJSON, `"Name": "w-ab12cd"`, `"Name": "w-other"`, 1)
	cap := writeFile(t, dir, "capture.json", bad)

	out, err := runCLI(t, "verify",
		"--snapshot", fix, "--test", widgetTestID, "-f", cap, "--no-history")
	if err == nil {
		t.Fatalf("expected mismatch failure, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "snapshot mismatch") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDiffCommand_NeverFails(t *testing.T) {
	dir := t.TempDir()
	fix := writeFile(t, dir, "widgets.snapshot.json", fixtureJSON)
	bad := strings.Replace(captureJSON, `"HTTPStatusCode": 200`, `"HTTPStatusCode": 404`, 1)
	cap := writeFile(t, dir, "capture.json", bad)

	out, err := runCLI(t, "diff",
		"--snapshot", fix, "--test", widgetTestID, "-f", cap)
	if err != nil {
		t.Fatalf("diff: %v\n%s", err, out)
	}
	if !strings.Contains(out, "HTTPStatusCode") {
		t.Errorf("diff output missing mismatch path:\n%s", out)
	}
}

func TestRecordThenVerifyAndHistory(t *testing.T) {
	dir := t.TempDir()
	fix := filepath.Join(dir, "recorded.snapshot.json")
	cap := writeFile(t, dir, "capture.json", captureJSON)
	rules := writeFile(t, dir, "rules.yaml", rulesYAML)
	db := filepath.Join(dir, "history.db")

	out, err := runCLI(t, "record",
		"--snapshot", fix, "--test", widgetTestID, "-f", cap,
		"--rules", rules, "--db", db)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	if _, err := os.Stat(fix); err != nil {
		t.Fatalf("fixture not written: %v", err)
	}

	// Transformers must have templated the generated values: the same
	// capture verifies against its own recording.
	out, err = runCLI(t, "verify",
		"--snapshot", fix, "--test", widgetTestID, "-f", cap, "--db", db)
	if err != nil {
		t.Fatalf("verify after record: %v\n%s", err, out)
	}

	out, err = runCLI(t, "history", "--db", db, "--test", widgetTestID)
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	if !strings.Contains(out, widgetTestID) {
		t.Errorf("history output missing test id:\n%s", out)
	}
	if !strings.Contains(out, "recorded") || !strings.Contains(out, "pass") {
		t.Errorf("history output missing results:\n%s", out)
	}
}
