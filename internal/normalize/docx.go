package normalize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"resumatch/internal/errors"
)

const docxBodyPart = "word/document.xml"

// extractDOCX reads the paragraphs of word/document.xml. Each paragraph
// becomes one line of a single segment. The body part may not inflate past
// the normalizer's size limit.
func (nz *Normalizer) extractDOCX(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%s not found in archive", docxBodyPart)
	}

	limit := int64(nz.maxBytes)
	if limit > 0 && body.UncompressedSize64 > uint64(limit) {
		return nil, docxTooLarge(limit)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	// the header size is not trusted; count what actually inflates
	src := &countingReader{r: rc, limit: limit}
	decoder := xml.NewDecoder(src)
	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if src.exceeded() {
			return nil, docxTooLarge(limit)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte(' ')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return []string{sb.String()}, nil
}

// countingReader stops reading once more than limit bytes have been read.
// A zero limit disables the check.
type countingReader struct {
	r     io.Reader
	limit int64
	read  int64
}

var errInflateLimit = stderrors.New("inflated size limit exceeded")

func (c *countingReader) Read(p []byte) (int, error) {
	if c.exceeded() {
		return 0, errInflateLimit
	}
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingReader) exceeded() bool {
	return c.limit > 0 && c.read > c.limit
}

func docxTooLarge(limit int64) error {
	return errors.NewExtractionError(errors.ErrCodeDocumentTooLarge,
		"document text exceeds the maximum allowed size", nil).
		WithContext("max_size", limit)
}
