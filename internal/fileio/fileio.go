// Package fileio loads documents from disk into search buffers and writes
// them back, preserving their character encoding, byte order mark and line
// ending style.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// Document is a decoded file.
type Document struct {
	// Path is the file the document was loaded from, if any.
	Path string

	// Encoding is the canonical name of the charset the file was decoded from.
	Encoding string

	// BOM reports whether the file started with a byte order mark.
	BOM bool

	// LineEnding is the file's line ending style. The buffer holds
	// LF-normalized text unless the file mixed styles.
	LineEnding buffer.LineEnding

	Buffer *buffer.Buffer

	cs charset
}

// Load reads and decodes the file at path. An empty charset or "auto"
// detects the encoding.
func Load(path, charsetName string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Decode(data, charsetName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Read decodes everything r yields.
func Read(r io.Reader, charsetName string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Decode(data, charsetName)
}

// Decode converts raw file content into a Document.
func Decode(data []byte, charsetName string) (*Document, error) {
	var (
		cs     charset
		hasBOM bool
	)
	if charsetName == "" || strings.EqualFold(charsetName, CharsetAuto) {
		if cs, hasBOM = detectBOM(data); !hasBOM {
			if IsBinary(data) {
				return nil, ErrBinary
			}
			cs = detectCharset(data)
		}
	} else {
		var err error
		if cs, err = lookupCharset(charsetName); err != nil {
			return nil, err
		}
		hasBOM = cs.bom != nil && bytes.HasPrefix(data, cs.bom)
	}
	if hasBOM {
		data = data[len(cs.bom):]
	}

	text, err := cs.decode(data)
	if err != nil {
		return nil, err
	}
	le := DetectLineEnding(text)
	normalize := buffer.WithLF()
	if le == buffer.LineEndingKeep {
		normalize = buffer.WithKeptLineEndings()
	}
	return &Document{
		Encoding:   cs.name,
		BOM:        hasBOM,
		LineEnding: le,
		Buffer:     buffer.NewBufferFromString(text, normalize),
		cs:         cs,
	}, nil
}

// Encode writes the buffer in the document's original encoding, line ending
// style and byte order mark.
func (d *Document) Encode(w io.Writer) error {
	out, err := d.cs.encode(restoreLineEndings(d.Buffer.Text(), d.LineEnding))
	if err != nil {
		return err
	}
	if d.BOM {
		if _, err := w.Write(d.cs.bom); err != nil {
			return err
		}
	}
	_, err = w.Write(out)
	return err
}

// Save writes the document to path through a temporary file in the same
// directory that replaces path on success.
func (d *Document) Save(path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = d.Encode(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if info, statErr := os.Stat(path); statErr == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("saving %s: %w", path, statErr)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	d.Path = path
	return nil
}
