package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumatch/internal/errors"
	"resumatch/internal/types"
	"resumatch/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger   *errors.Logger
	maxBytes int64
}

// NewFileProcessor creates a new file processor instance. maxBytes <= 0
// disables the size check.
func NewFileProcessor(logger *errors.Logger, maxBytes int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxBytes: maxBytes}
}

// ReadFile reads the raw bytes of a file, refusing files over the size limit.
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid input file: %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	var r io.Reader = file
	if fp.maxBytes > 0 {
		r = io.LimitReader(file, fp.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxBytes > 0 && int64(len(content)) > fp.maxBytes {
		return nil, errors.NewExtractionError(errors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("File exceeds the %s limit: %s", utils.FormatFileSize(fp.maxBytes), filename), nil).
			WithContext("name", filepath.Base(filename))
	}

	return content, nil
}

// ReadDocument reads a resume file and tags it with its detected kind.
func (fp *FileProcessor) ReadDocument(filename string) (types.Document, error) {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return types.Document{}, err
	}

	kind := utils.DetectDocumentKind(filename, "", content)
	if fp.logger != nil {
		fp.logger.Debug("Read input document",
			"filename", filename,
			"kind", kind,
			"size", utils.FormatFileSize(int64(len(content))))
	}
	return types.FileInput(filepath.Base(filename), kind, content), nil
}

// ReadText reads a file as plain text.
func (fp *FileProcessor) ReadText(filename string) (string, error) {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
