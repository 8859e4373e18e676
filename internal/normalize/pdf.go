package normalize

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"resumatch/internal/errors"
)

// kerning offsets in TJ arrays below this value are rendered as a word gap
const tjWordGap = -200

var disablePDFConfigDir sync.Once

// extractPDF returns one segment per page, in page order. A page whose
// content cannot be read fails the whole document.
func extractPDF(data []byte) (segments []string, err error) {
	disablePDFConfigDir.Do(func() { model.ConfigPath = "disable" })

	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = errors.NewExtractionError(errors.ErrCodeDocumentCorrupt,
				"failed to read pdf document", fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, errors.NewExtractionError(errors.ErrCodeDocumentCorrupt, "failed to read pdf document", err)
	}

	segments = make([]string, 0, pdfCtx.PageCount)
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return nil, pageError(pageNr, err)
		}
		if r == nil {
			segments = append(segments, "")
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, pageError(pageNr, err)
		}
		segments = append(segments, contentStreamText(content))
	}
	return segments, nil
}

func pageError(pageNr int, cause error) error {
	return errors.NewExtractionError(errors.ErrCodePageExtractionFailed,
		fmt.Sprintf("failed to extract text from page %d", pageNr), cause).
		WithContext("page", pageNr)
}

// contentStreamText interprets the text showing and positioning operators of
// a page content stream. Line moves become newlines; everything else that is
// not string data is ignored.
func contentStreamText(content []byte) string {
	s := &contentScanner{data: content}
	var out strings.Builder
	var texts []string
	var nums []float64
	inArray := false
	lastY, haveY := 0.0, false

	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	space := func() {
		if out.Len() > 0 {
			last := out.String()[out.Len()-1]
			if last != ' ' && last != '\n' {
				out.WriteByte(' ')
			}
		}
	}

	for {
		tok, kind, ok := s.next()
		if !ok {
			break
		}
		switch kind {
		case tokString:
			texts = append(texts, tok)
		case tokNumber:
			n, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				continue
			}
			if inArray && n < tjWordGap {
				texts = append(texts, " ")
			}
			nums = append(nums, n)
		case tokArrayOpen:
			inArray = true
		case tokArrayClose:
			inArray = false
		case tokOperator:
			switch tok {
			case "Tj", "TJ":
				out.WriteString(strings.Join(texts, ""))
			case "'", `"`:
				newline()
				out.WriteString(strings.Join(texts, ""))
			case "Td", "TD":
				if len(nums) >= 2 && nums[len(nums)-1] != 0 {
					newline()
				} else {
					space()
				}
			case "Tm":
				if len(nums) >= 6 {
					y := nums[len(nums)-1]
					if haveY && y != lastY {
						newline()
					}
					lastY, haveY = y, true
				}
			case "T*":
				newline()
			case "ET":
				space()
			case "BI":
				s.skipInlineImage()
			}
			texts = texts[:0]
			nums = nums[:0]
		}
	}
	return out.String()
}

type tokenKind int

const (
	tokString tokenKind = iota
	tokNumber
	tokArrayOpen
	tokArrayClose
	tokOperator
	tokOther
)

type contentScanner struct {
	data []byte
	pos  int
}

func isPDFWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *contentScanner) next() (string, tokenKind, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFWhitespace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.pos++
			return decodePDFBytes(s.literalString()), tokString, true
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				return "<<", tokOther, true
			}
			s.pos++
			return decodePDFBytes(s.hexString()), tokString, true
		case c == '>':
			s.pos++
			if s.pos < len(s.data) && s.data[s.pos] == '>' {
				s.pos++
			}
			return ">>", tokOther, true
		case c == '[':
			s.pos++
			return "[", tokArrayOpen, true
		case c == ']':
			s.pos++
			return "]", tokArrayClose, true
		case c == '/':
			s.pos++
			return "/" + s.regular(), tokOther, true
		case c == '{' || c == '}' || c == ')':
			s.pos++
		default:
			word := s.regular()
			if word == "" {
				s.pos++
				continue
			}
			if isPDFNumber(word) {
				return word, tokNumber, true
			}
			return word, tokOperator, true
		}
	}
	return "", tokOther, false
}

func (s *contentScanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFWhitespace(s.data[s.pos]) && !isPDFDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func isPDFNumber(word string) bool {
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return false
		}
	}
	return true
}

// literalString reads a parenthesized string body, honoring nesting and escapes.
func (s *contentScanner) literalString() []byte {
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return buf
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						val = val*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					buf = append(buf, byte(val))
				} else {
					buf = append(buf, e)
				}
			}
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return buf
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

func (s *contentScanner) hexString() []byte {
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if !isPDFWhitespace(s.data[s.pos]) {
			digits = append(digits, s.data[s.pos])
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out, err := hex.DecodeString(string(digits))
	if err != nil {
		return nil
	}
	return out
}

// skipInlineImage moves past the binary data of a BI ... ID ... EI block.
func (s *contentScanner) skipInlineImage() {
	idx := bytes.Index(s.data[s.pos:], []byte("EI"))
	for idx >= 0 {
		end := s.pos + idx + 2
		before := s.pos + idx - 1
		if (before < 0 || isPDFWhitespace(s.data[before])) && (end >= len(s.data) || isPDFWhitespace(s.data[end])) {
			s.pos = end
			return
		}
		next := bytes.Index(s.data[end:], []byte("EI"))
		if next < 0 {
			break
		}
		idx = end - s.pos + next
	}
	s.pos = len(s.data)
}

var utf16BOM = []byte{0xFE, 0xFF}

// decodePDFBytes converts a PDF string to UTF-8. UTF-16BE strings carry a BOM;
// other bytes are taken as UTF-8 when valid and as Windows-1252 otherwise.
func decodePDFBytes(raw []byte) string {
	if bytes.HasPrefix(raw, utf16BOM) {
		decoded, err := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded)
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, nil))
	}
	return string(decoded)
}
