package normalize

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxControlRatio is the share of C0 control bytes (other than whitespace)
// above which a text payload is treated as binary.
const maxControlRatio = 0.05

// extractPlainText decodes a text file. Payloads that sniff as binary are
// rejected rather than decoded into garbage.
func extractPlainText(data []byte) ([]string, error) {
	if text, ok := decodeUTF16(data); ok {
		return []string{text}, nil
	}
	if err := checkTextPayload(data); err != nil {
		return nil, err
	}
	return []string{decodeText(data)}, nil
}

func checkTextPayload(data []byte) error {
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if !strings.HasPrefix(mediaType, "text/") {
		return fmt.Errorf("content sniffs as %s, not text", mediaType)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return fmt.Errorf("text contains NUL bytes")
	}
	control := 0
	for _, b := range data {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			control++
		}
	}
	if float64(control) > maxControlRatio*float64(len(data)) {
		return fmt.Errorf("text has %d control bytes in %d", control, len(data))
	}
	return nil
}

// decodeUTF16 decodes data that starts with a UTF-16 byte order mark.
func decodeUTF16(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return "", false
	}
	decoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// decodeText returns data as UTF-8. Input that is not valid UTF-8 is read as
// Windows-1252, which maps every byte to a character.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, nil))
	}
	return string(decoded)
}
