// Package termsafe renders raw bytes coming off the specMech serial
// link safely on a UTF-8 terminal. The controller's firmware
// occasionally emits extended-ASCII bytes (degree signs, box-drawing
// characters) in free-text reply fields; those bytes are not valid
// UTF-8 on their own, so writing them straight to a terminal produces
// mojibake. SelectiveWriter decodes everything except ANSI escape
// sequences through code page 437, passing escapes through untouched
// so callers can still color their own output around it.
package termsafe

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type ansiState int

const (
	ansiStateGround ansiState = iota
	ansiStateEscape
	ansiStateCSI
)

// SelectiveWriter decodes CP437 text to UTF-8 while passing ANSI
// escape sequences through unmodified.
type SelectiveWriter struct {
	w       io.Writer
	decoder transform.Transformer
	state   ansiState
	ansiBuf bytes.Buffer
}

// NewSelectiveWriter returns a SelectiveWriter wrapping w.
func NewSelectiveWriter(w io.Writer) *SelectiveWriter {
	return &SelectiveWriter{w: w, decoder: charmap.CodePage437.NewDecoder()}
}

func (sw *SelectiveWriter) Write(p []byte) (int, error) {
	var textChunk bytes.Buffer

	flushText := func() error {
		if textChunk.Len() == 0 {
			return nil
		}
		decoded, _, _ := transform.Bytes(sw.decoder, textChunk.Bytes())
		textChunk.Reset()
		if len(decoded) == 0 {
			return nil
		}
		_, err := sw.w.Write(decoded)
		return err
	}

	flushAnsi := func() error {
		if sw.ansiBuf.Len() == 0 {
			return nil
		}
		_, err := sw.w.Write(sw.ansiBuf.Bytes())
		sw.ansiBuf.Reset()
		return err
	}

	for i, b := range p {
		switch sw.state {
		case ansiStateGround:
			if b == 0x1b {
				if err := flushText(); err != nil {
					return i, err
				}
				sw.ansiBuf.WriteByte(b)
				sw.state = ansiStateEscape
			} else {
				textChunk.WriteByte(b)
			}
		case ansiStateEscape:
			sw.ansiBuf.WriteByte(b)
			if b == '[' {
				sw.state = ansiStateCSI
			} else {
				if err := flushAnsi(); err != nil {
					return i, err
				}
				sw.state = ansiStateGround
			}
		case ansiStateCSI:
			sw.ansiBuf.WriteByte(b)
			if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
				if err := flushAnsi(); err != nil {
					return i, err
				}
				sw.state = ansiStateGround
			}
		}
	}

	if err := flushText(); err != nil {
		return len(p), err
	}
	if err := flushAnsi(); err != nil {
		return len(p), err
	}
	return len(p), nil
}
