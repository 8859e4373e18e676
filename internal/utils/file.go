package utils

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resumatch/internal/types"
)

// ValidateInputFile checks if a file exists and is readable
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return nil
}

// ValidateOutputFile checks if the output file path is valid
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(ext)
}

var kindByExtension = map[string]types.DocumentKind{
	".pdf":      types.KindPDF,
	".docx":     types.KindDOCX,
	".html":     types.KindHTML,
	".htm":      types.KindHTML,
	".txt":      types.KindText,
	".text":     types.KindText,
	".md":       types.KindText,
	".markdown": types.KindText,
}

var kindByMediaType = map[string]types.DocumentKind{
	"application/pdf": types.KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": types.KindDOCX,
	"text/html":     types.KindHTML,
	"text/plain":    types.KindText,
	"text/markdown": types.KindText,
}

// DetectDocumentKind picks the document kind from the file extension, then
// the declared content type, then the leading bytes. An extension outside
// the supported set is returned as its own kind so the normalizer rejects it.
// PDF and zip magic bytes override a plain-text extension.
func DetectDocumentKind(filename, contentType string, data []byte) types.DocumentKind {
	if ext := GetFileExtension(filename); ext != "" {
		if kind, ok := kindByExtension[ext]; ok {
			if kind == types.KindText && hasBinaryMagic(data) {
				return SniffDocumentKind(data)
			}
			return kind
		}
		return types.DocumentKind(strings.TrimPrefix(ext, "."))
	}

	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if kind, ok := kindByMediaType[mediaType]; ok {
				return kind
			}
		}
	}

	return SniffDocumentKind(data)
}

func hasBinaryMagic(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-")) || bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// SniffDocumentKind guesses the kind from content alone. Unrecognised
// binary content yields "binary".
func SniffDocumentKind(data []byte) types.DocumentKind {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return types.KindPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return types.KindDOCX
	}

	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	switch {
	case mediaType == "text/html":
		return types.KindHTML
	case strings.HasPrefix(mediaType, "text/"), utf8.Valid(data):
		return types.KindText
	}
	return "binary"
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
