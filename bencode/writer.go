package bencode

import (
	"io"
	"strconv"
)

// Writer serializes one bencode value token by token. Every call is checked against the same grammar the Reader
// enforces, so a sequence of successful calls always yields valid bencode. A rejected call writes nothing.
//
// A Writer either owns a growable buffer (NewWriter) or fills a caller-supplied slice (NewFixedWriter). It is not
// safe for concurrent use.
type Writer struct {
	machine
	buf   []byte
	fixed bool
}

func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns a growable Writer with room for n bytes before it has to reallocate.
func NewWriterSize(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// NewFixedWriter writes into dst and fails with DestinationTooSmallError instead of growing past len(dst).
func NewFixedWriter(dst []byte) *Writer {
	return &Writer{buf: dst[:0:len(dst)], fixed: true}
}

// Position is the number of bytes written so far.
func (w *Writer) Position() int {
	return len(w.buf)
}

func (w *Writer) reserve(n int, what string) error {
	if w.fixed && n > cap(w.buf)-len(w.buf) {
		return w.fail(&DestinationTooSmallError{What: what})
	}
	return nil
}

func (w *Writer) WriteInteger(v int64) error {
	if err := w.checkValue("write integer"); err != nil {
		return err
	}
	var tmp [20]byte
	digits := strconv.AppendInt(tmp[:0], v, 10)
	if err := w.reserve(len(digits)+2, "integer"); err != nil {
		return err
	}
	w.buf = append(w.buf, numberStart)
	w.buf = append(w.buf, digits...)
	w.buf = append(w.buf, bencodeEnd)
	w.valueDone()
	return nil
}

func (w *Writer) WriteString(b []byte) error {
	if err := w.checkValue("write string"); err != nil {
		return err
	}
	if err := w.appendString(b, "string"); err != nil {
		return err
	}
	w.valueDone()
	return nil
}

// WriteKey writes a dictionary key. Keys must be unique within a dictionary; their order is not checked.
func (w *Writer) WriteKey(key []byte) error {
	if err := w.check(w.state == DictionaryKey, "write key"); err != nil {
		return err
	}
	f := w.top()
	if f.hasKey(key) {
		return w.fail(newInvalidBencodeError(len(w.buf), "duplicate dictionary key %q", key))
	}
	if err := w.appendString(key, "key"); err != nil {
		return err
	}
	f.addKey(key)
	w.keyDone()
	return nil
}

func (w *Writer) appendString(b []byte, what string) error {
	var tmp [20]byte
	length := strconv.AppendInt(tmp[:0], int64(len(b)), 10)
	if err := w.reserve(len(length)+1+len(b), what); err != nil {
		return err
	}
	w.buf = append(w.buf, length...)
	w.buf = append(w.buf, bytesLengthSep)
	w.buf = append(w.buf, b...)
	return nil
}

func (w *Writer) WriteListHead() error {
	if err := w.checkValue("write list head"); err != nil {
		return err
	}
	if err := w.reserve(1, "list head"); err != nil {
		return err
	}
	w.buf = append(w.buf, listStart)
	w.push(listFrame, false)
	return nil
}

func (w *Writer) WriteListTail() error {
	if err := w.check(w.state == ListValue, "write list tail"); err != nil {
		return err
	}
	if err := w.reserve(1, "list tail"); err != nil {
		return err
	}
	w.buf = append(w.buf, bencodeEnd)
	w.pop()
	return nil
}

func (w *Writer) WriteDictionaryHead() error {
	if err := w.checkValue("write dictionary head"); err != nil {
		return err
	}
	if err := w.reserve(1, "dictionary head"); err != nil {
		return err
	}
	w.buf = append(w.buf, dictStart)
	w.push(dictionaryFrame, false)
	return nil
}

func (w *Writer) WriteDictionaryTail() error {
	if err := w.check(w.state == DictionaryKey, "write dictionary tail"); err != nil {
		return err
	}
	if err := w.reserve(1, "dictionary tail"); err != nil {
		return err
	}
	w.buf = append(w.buf, bencodeEnd)
	w.pop()
	return nil
}

// WriteEncoded transplants one already-encoded value. The value is validated first, including duplicate keys at
// every depth; if it is malformed or followed by trailing bytes the error is returned and the Writer is left as it
// was.
func (w *Writer) WriteEncoded(encoded []byte) error {
	if err := w.checkValue("write encoded value"); err != nil {
		return err
	}
	r := NewReader(encoded)
	if err := r.skipValue(true); err != nil {
		return err
	}
	if r.Position() != len(encoded) {
		return newInvalidBencodeError(r.Position(), "unexpected trailing data after encoded value")
	}
	if err := w.reserve(len(encoded), "encoded value"); err != nil {
		return err
	}
	w.buf = append(w.buf, encoded...)
	w.valueDone()
	return nil
}

// Clear resets the Writer to the Initial state, keeping its buffer and frame capacity.
func (w *Writer) Clear() {
	w.buf = w.buf[:0]
	w.reset()
}

func (w *Writer) checkComplete(op string) error {
	return w.check(w.state == Final, op)
}

// Encode returns a copy of the complete value.
func (w *Writer) Encode() ([]byte, error) {
	if err := w.checkComplete("encode"); err != nil {
		return nil, err
	}
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out, nil
}

// EncodeTo copies the complete value into dst and returns its length.
func (w *Writer) EncodeTo(dst []byte) (int, error) {
	if err := w.checkComplete("encode"); err != nil {
		return 0, err
	}
	if len(dst) < len(w.buf) {
		return 0, &DestinationTooSmallError{What: "encoded value"}
	}
	return copy(dst, w.buf), nil
}

// TryEncodeTo is EncodeTo reporting a short dst with ok == false instead of an error.
func (w *Writer) TryEncodeTo(dst []byte) (n int, ok bool, err error) {
	if err := w.checkComplete("encode"); err != nil {
		return 0, false, err
	}
	if len(dst) < len(w.buf) {
		return 0, false, nil
	}
	return copy(dst, w.buf), true, nil
}

// TransferEncoded hands the encoded value to the caller without copying and resets the Writer. A growable Writer
// starts over with a fresh buffer; a fixed Writer continues in the part of its destination after the value.
func (w *Writer) TransferEncoded() ([]byte, error) {
	if err := w.checkComplete("transfer encoded value"); err != nil {
		return nil, err
	}
	n := len(w.buf)
	out := w.buf[:n:n]
	if w.fixed {
		w.buf = w.buf[n:n:cap(w.buf)]
	} else {
		w.buf = nil
	}
	w.reset()
	return out, nil
}

// WriteTo writes the complete value to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	if err := w.checkComplete("write encoded value"); err != nil {
		return 0, err
	}
	n, err := dst.Write(w.buf)
	return int64(n), err
}
