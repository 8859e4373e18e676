package utils

import (
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/types"
)

func TestDetectDocumentKind(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        string
		want        types.DocumentKind
	}{
		{"pdf extension", "cv.PDF", "", "anything", types.KindPDF},
		{"docx extension", "cv.docx", "", "", types.KindDOCX},
		{"htm extension", "cv.htm", "", "", types.KindHTML},
		{"markdown extension", "cv.md", "", "", types.KindText},
		{"extension wins over content type", "cv.txt", "application/pdf", "", types.KindText},
		{"pdf renamed to txt", "cv.txt", "text/plain", "%PDF-1.4\n", types.KindPDF},
		{"zip renamed to md", "cv.md", "", "PK\x03\x04rest", types.KindDOCX},
		{"unsupported extension", "cv.odt", "", "PK\x03\x04", types.DocumentKind("odt")},
		{"content type with params", "upload", "text/html; charset=utf-8", "", types.KindHTML},
		{"docx content type", "upload", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", types.KindDOCX},
		{"octet stream falls back to sniffing", "upload", "application/octet-stream", "%PDF-1.7\n", types.KindPDF},
		{"sniff zip", "", "", "PK\x03\x04rest", types.KindDOCX},
		{"sniff html", "", "", "<!DOCTYPE html><html><body>x</body></html>", types.KindHTML},
		{"sniff text", "", "", "Jane Doe\nGo developer", types.KindText},
		{"sniff binary", "", "", "\x00\x01\x02\xff\xfe", types.DocumentKind("binary")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDocumentKind(tt.filename, tt.contentType, []byte(tt.data)); got != tt.want {
				t.Errorf("DetectDocumentKind(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(file, []byte("Go developer"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(file); err != nil {
		t.Errorf("ValidateInputFile(existing) error = %v", err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("ValidateInputFile(\"\") should fail")
	}
	if err := ValidateInputFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("ValidateInputFile(missing) should fail")
	}
	if err := ValidateInputFile(dir); err == nil {
		t.Error("ValidateInputFile(directory) should fail")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		10 * 1024 * 1024: "10.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
