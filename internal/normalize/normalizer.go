// Package normalize turns raw resume and job inputs into clean, whitespace
// collapsed text. Binary documents are dispatched to a per-kind extractor;
// every extractor yields ordered segments (pages, paragraphs) that are cleaned
// and joined the same way.
package normalize

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// extractor returns the raw text segments of a document in source order.
type extractor func(data []byte) ([]string, error)

// Normalizer converts Documents into NormalizedText. It holds no per-request
// state and is safe for concurrent use.
type Normalizer struct {
	maxBytes   int
	extractors map[types.DocumentKind]extractor
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMaxBytes rejects payloads larger than n bytes. Zero disables the limit.
func WithMaxBytes(n int) Option {
	return func(nz *Normalizer) {
		if n >= 0 {
			nz.maxBytes = n
		}
	}
}

// New creates a Normalizer with every supported document kind registered.
func New(opts ...Option) *Normalizer {
	nz := &Normalizer{
		extractors: map[types.DocumentKind]extractor{
			types.KindPDF:  extractPDF,
			types.KindText: extractPlainText,
			types.KindHTML: extractHTML,
		},
	}
	nz.extractors[types.KindDOCX] = nz.extractDOCX
	for _, opt := range opts {
		opt(nz)
	}
	return nz
}

// Normalize extracts and cleans the text of doc. It fails with an extraction
// error when the document is empty, unreadable, or yields no text.
func (nz *Normalizer) Normalize(ctx context.Context, doc types.Document) (types.NormalizedText, error) {
	if err := ctx.Err(); err != nil {
		return types.NormalizedText{}, err
	}
	if nz.maxBytes > 0 && doc.Size() > nz.maxBytes {
		return types.NormalizedText{}, errors.NewExtractionError(errors.ErrCodeDocumentTooLarge,
			"document exceeds the maximum allowed size", nil).
			WithContext("size", doc.Size()).
			WithContext("max_size", nz.maxBytes)
	}

	var segments []string
	switch doc.Source {
	case types.SourceText:
		segments = []string{decodeText([]byte(doc.Text))}
	case types.SourceFile:
		if len(doc.Data) == 0 {
			return types.NormalizedText{}, errors.NewExtractionError(errors.ErrCodeEmptyDocument,
				"document is empty", nil).WithContext("name", doc.Name)
		}
		extract, ok := nz.extractors[doc.Kind]
		if !ok {
			return types.NormalizedText{}, errors.NewExtractionError(errors.ErrCodeUnsupportedDocument,
				"unsupported document kind: "+string(doc.Kind), nil).WithContext("name", doc.Name)
		}
		var err error
		segments, err = extract(doc.Data)
		if err != nil {
			if appErr, ok := errors.As(err); ok {
				return types.NormalizedText{}, appErr.WithContext("name", doc.Name)
			}
			return types.NormalizedText{}, errors.NewExtractionError(errors.ErrCodeDocumentCorrupt,
				"failed to read "+string(doc.Kind)+" document", err).WithContext("name", doc.Name)
		}
	default:
		return types.NormalizedText{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"document has no source", nil)
	}

	result := Segments(segments)
	if doc.Kind == types.KindPDF {
		result.Pages = len(segments)
	}
	if result.Text == "" {
		return types.NormalizedText{}, errors.NewExtractionError(errors.ErrCodeNoText,
			"no text could be extracted from the document", nil).WithContext("name", doc.Name)
	}
	return result, nil
}

// Segments cleans each segment, keeps its non-empty lines, and joins the
// segments in order with a single space.
func Segments(segments []string) types.NormalizedText {
	var lines []string
	var parts []string
	for _, segment := range segments {
		var segLines []string
		for _, line := range strings.Split(segment, "\n") {
			if cleaned := Clean(line); cleaned != "" {
				segLines = append(segLines, cleaned)
			}
		}
		if len(segLines) == 0 {
			continue
		}
		lines = append(lines, segLines...)
		parts = append(parts, strings.Join(segLines, " "))
	}
	return types.NormalizedText{Text: strings.Join(parts, " "), Lines: lines}
}

// Clean applies NFKC normalization, drops control characters, collapses
// whitespace runs to a single space, and trims.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = sb.Len() > 0
		case unicode.IsControl(r), r == utf8.RuneError, unicode.Is(unicode.Cf, r):
			continue
		default:
			if pendingSpace {
				sb.WriteByte(' ')
				pendingSpace = false
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
