package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumatch/internal/errors"
	"resumatch/internal/pipeline"
	"resumatch/internal/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDocument(t *testing.T) {
	fp := NewFileProcessor(errors.NewNopLogger(), 1024)

	doc, err := fp.ReadDocument(writeTemp(t, "resume.html", "<p>Go developer</p>"))
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if doc.Source != types.SourceFile || doc.Kind != types.KindHTML || doc.Name != "resume.html" {
		t.Errorf("ReadDocument() = %+v", doc)
	}

	_, err = fp.ReadDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.IsType(err, errors.ErrorTypeIO) {
		t.Errorf("missing file error = %v, want io", err)
	}
}

func TestReadFileTooLarge(t *testing.T) {
	fp := NewFileProcessor(nil, 8)
	_, err := fp.ReadFile(writeTemp(t, "big.txt", strings.Repeat("x", 9)))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeDocumentTooLarge {
		t.Fatalf("ReadFile() error = %v, want DOCUMENT_TOO_LARGE", err)
	}

	content, err := fp.ReadFile(writeTemp(t, "ok.txt", strings.Repeat("x", 8)))
	if err != nil || len(content) != 8 {
		t.Errorf("ReadFile() at the limit = %d bytes, %v", len(content), err)
	}
}

func TestHandleOutput(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandlerWithWriter(errors.NewNopLogger(), &buf)
	result := types.MatchResult{Prediction: types.PredictionNotFit}

	if err := oh.HandleOutput(result, CommandConfig{OutputFormat: "text"}); err != nil {
		t.Fatalf("HandleOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Prediction: Not Fit") {
		t.Errorf("stdout = %q", buf.String())
	}

	out := filepath.Join(t.TempDir(), "nested", "result.json")
	if err := oh.HandleOutput(result, CommandConfig{OutputFormat: "json", OutputFile: out}); err != nil {
		t.Fatalf("HandleOutput(file) error = %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil || !strings.Contains(string(written), `"prediction": "Not Fit"`) {
		t.Errorf("written file = %q, %v", written, err)
	}

	err = oh.HandleOutput(result, CommandConfig{OutputFormat: "yaml"})
	if !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("unknown format error = %v, want validation", err)
	}
}

func TestRunCommand(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandlerWithWriter(nil, &buf)

	var seenID string
	err := RunCommand(context.Background(), nil, oh, CommandConfig{OutputFormat: "json"}, "parse",
		func(ctx context.Context) (types.ParseResult, error) {
			seenID = pipeline.RequestID(ctx)
			return types.ParseResult{Summary: "ok"}, nil
		})
	if err != nil {
		t.Fatalf("RunCommand() error = %v", err)
	}
	if len(seenID) != 36 {
		t.Errorf("request id = %q, want a uuid", seenID)
	}
	if !strings.Contains(buf.String(), `"summary": "ok"`) {
		t.Errorf("output = %q", buf.String())
	}

	want := stderrors.New("failed")
	err = RunCommand(context.Background(), nil, oh, CommandConfig{OutputFormat: "json"}, "parse",
		func(context.Context) (types.ParseResult, error) { return types.ParseResult{}, want })
	if !stderrors.Is(err, want) {
		t.Errorf("RunCommand() error = %v, want %v", err, want)
	}
}
