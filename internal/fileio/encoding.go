package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Errors returned while decoding documents.
var (
	ErrBinary          = errors.New("content appears to be binary")
	ErrUnknownEncoding = errors.New("unknown character encoding")
)

// Charset names recognized without an IANA lookup.
const (
	CharsetAuto    = "auto"
	CharsetUTF8    = "UTF-8"
	CharsetUTF16LE = "UTF-16LE"
	CharsetUTF16BE = "UTF-16BE"
	CharsetLatin1  = "ISO-8859-1"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charset pairs a canonical name with its x/text encoding.
type charset struct {
	name string
	enc  encoding.Encoding
	bom  []byte
}

func (c charset) decode(data []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", c.name, err)
	}
	return string(out), nil
}

func (c charset) encode(text string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", c.name, err)
	}
	return out, nil
}

var (
	utf8Charset    = charset{name: CharsetUTF8, enc: unicode.UTF8, bom: bomUTF8}
	utf16LECharset = charset{name: CharsetUTF16LE, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), bom: bomUTF16LE}
	utf16BECharset = charset{name: CharsetUTF16BE, enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), bom: bomUTF16BE}
	latin1Charset  = charset{name: CharsetLatin1, enc: charmap.ISO8859_1}
)

// lookupCharset resolves an IANA charset name or alias.
func lookupCharset(name string) (charset, error) {
	switch strings.ToUpper(name) {
	case "UTF-8", "UTF8":
		return utf8Charset, nil
	case "UTF-16LE":
		return utf16LECharset, nil
	case "UTF-16BE":
		return utf16BECharset, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return charset{}, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	if enc == nil {
		return charset{}, fmt.Errorf("%w: %s is not supported", ErrUnknownEncoding, name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return charset{name: canonical, enc: enc}, nil
}

// detectBOM reports the charset announced by a byte order mark, if any.
func detectBOM(data []byte) (charset, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return utf8Charset, true
	case bytes.HasPrefix(data, bomUTF16LE):
		return utf16LECharset, true
	case bytes.HasPrefix(data, bomUTF16BE):
		return utf16BECharset, true
	}
	return charset{}, false
}

// detectCharset guesses the charset of content without a BOM: valid UTF-8
// stays UTF-8 and anything else falls back to Latin-1, which accepts every
// byte sequence.
func detectCharset(data []byte) charset {
	if utf8.Valid(data) {
		return utf8Charset
	}
	return latin1Charset
}

// IsBinary reports whether content looks like binary data: a NUL byte or more
// than 10% control characters in the first 8 KiB.
func IsBinary(data []byte) bool {
	sample := data[:min(len(data), 8192)]
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			nonText++
		}
	}
	return nonText*10 > len(sample)
}

// DetectLineEnding returns the dominant line ending of text. Text mixing
// styles, each present on at least a tenth of the lines, reports
// buffer.LineEndingKeep so it round-trips unchanged.
func DetectLineEnding(text string) buffer.LineEnding {
	var lf, crlf, cr int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}
	total := lf + crlf + cr
	if total == 0 {
		return buffer.LineEndingLF
	}
	threshold := max(total/10, 1)
	styles := 0
	for _, n := range []int{lf, crlf, cr} {
		if n >= threshold {
			styles++
		}
	}
	if styles > 1 {
		return buffer.LineEndingKeep
	}
	return buffer.DetectLineEnding(text)
}

// restoreLineEndings converts LF-normalized text back to le.
func restoreLineEndings(text string, le buffer.LineEnding) string {
	switch le {
	case buffer.LineEndingCRLF:
		return strings.ReplaceAll(text, "\n", "\r\n")
	case buffer.LineEndingCR:
		return strings.ReplaceAll(text, "\n", "\r")
	default:
		return text
	}
}
