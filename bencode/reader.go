package bencode

// Reader is a pull parser over a complete bencode document held in memory. Each call consumes one token and
// advances Position; the buffer is borrowed for the Reader's lifetime and never modified.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	machine
	buf               []byte
	pos               int
	last              TokenType
	skipDuplicateKeys bool
}

type ReaderOption func(*Reader)

// WithSkipDuplicateKeys makes ReadKey return repeated keys instead of failing.
func WithSkipDuplicateKeys(skip bool) ReaderOption {
	return func(r *Reader) {
		r.skipDuplicateKeys = skip
	}
}

func NewReader(buf []byte, opts ...ReaderOption) *Reader {
	r := &Reader{buf: buf}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewReaderAt returns a Reader whose cursor starts at offset pos of buf, typically a value offset taken from a
// Dictionary. Positions, including those in errors, stay absolute.
func NewReaderAt(buf []byte, pos int, opts ...ReaderOption) *Reader {
	r := NewReader(buf, opts...)
	switch {
	case pos < 0:
		r.pos = 0
	case pos > len(buf):
		r.pos = len(buf)
	default:
		r.pos = pos
	}
	return r
}

// Position is the offset of the next unread byte.
func (r *Reader) Position() int {
	return r.pos
}

// Len is the length of the source buffer.
func (r *Reader) Len() int {
	return len(r.buf)
}

// TokenType returns the type of the most recently consumed token, or None before the first one.
func (r *Reader) TokenType() TokenType {
	return r.last
}

// fail records a data error and moves the cursor just past the offending byte.
func (r *Reader) fail(err error) error {
	if pos, ok := ErrorPosition(err); ok {
		r.pos = pos + 1
		if r.pos > len(r.buf) {
			r.pos = len(r.buf)
		}
	}
	return r.machine.fail(err)
}

func (r *Reader) consumed(next int, t TokenType) {
	r.pos = next
	r.last = t
}

// ReadTokenType classifies the next token without consuming it. It returns None once the top-level value has been
// read or after an error.
func (r *Reader) ReadTokenType() (TokenType, error) {
	if r.state == Final || r.state == Error {
		return None, nil
	}
	t, err := scanTokenType(r.buf, r.pos, r.contextForState())
	if err != nil {
		return None, r.fail(err)
	}
	return t, nil
}

func (r *Reader) ReadInteger() (int64, error) {
	if err := r.checkValue("read integer"); err != nil {
		return 0, err
	}
	v, next, err := scanInteger(r.buf, r.pos)
	if err != nil {
		return 0, r.fail(err)
	}
	r.consumed(next, Integer)
	r.valueDone()
	return v, nil
}

// ReadStringLength returns the length of the next string without consuming it.
func (r *Reader) ReadStringLength() (int, error) {
	if err := r.checkValue("read string length"); err != nil {
		return 0, err
	}
	return r.peekLength()
}

// ReadString consumes the next string and returns a view into the source buffer.
func (r *Reader) ReadString() ([]byte, error) {
	if err := r.checkValue("read string"); err != nil {
		return nil, err
	}
	b, next, err := scanString(r.buf, r.pos)
	if err != nil {
		return nil, r.fail(err)
	}
	r.consumed(next, String)
	r.valueDone()
	return b, nil
}

// TryReadString copies the next string into dst. When dst is too short it returns ok == false and consumes nothing,
// so the call can be retried with a larger buffer.
func (r *Reader) TryReadString(dst []byte) (n int, ok bool, err error) {
	if err := r.checkValue("read string"); err != nil {
		return 0, false, err
	}
	b, next, err := scanString(r.buf, r.pos)
	if err != nil {
		return 0, false, r.fail(err)
	}
	if len(b) > len(dst) {
		return 0, false, nil
	}
	r.consumed(next, String)
	r.valueDone()
	return copy(dst, b), true, nil
}

func (r *Reader) ReadKeyLength() (int, error) {
	if err := r.check(r.state == DictionaryKey, "read key length"); err != nil {
		return 0, err
	}
	return r.peekLength()
}

// ReadKey consumes the next dictionary key and returns a view into the source buffer. A key already seen in the
// same dictionary is an error unless the Reader was built WithSkipDuplicateKeys.
func (r *Reader) ReadKey() ([]byte, error) {
	if err := r.check(r.state == DictionaryKey, "read key"); err != nil {
		return nil, err
	}
	b, next, err := r.scanKey()
	if err != nil {
		return nil, err
	}
	r.consumed(next, Key)
	r.keyDone()
	return b, nil
}

// TryReadKey is TryReadString for keys. A key that does not fit is neither consumed nor recorded.
func (r *Reader) TryReadKey(dst []byte) (int, bool, error) {
	if err := r.check(r.state == DictionaryKey, "read key"); err != nil {
		return 0, false, err
	}
	b, next, err := scanString(r.buf, r.pos)
	if err != nil {
		return 0, false, r.fail(err)
	}
	if len(b) > len(dst) {
		return 0, false, nil
	}
	if err := r.recordKey(b); err != nil {
		return 0, false, err
	}
	r.consumed(next, Key)
	r.keyDone()
	return copy(dst, b), true, nil
}

func (r *Reader) peekLength() (int, error) {
	n, _, err := scanStringHeader(r.buf, r.pos)
	if err != nil {
		return 0, r.fail(err)
	}
	return n, nil
}

func (r *Reader) scanKey() ([]byte, int, error) {
	b, next, err := scanString(r.buf, r.pos)
	if err != nil {
		return nil, r.pos, r.fail(err)
	}
	if err := r.recordKey(b); err != nil {
		return nil, r.pos, err
	}
	return b, next, nil
}

func (r *Reader) recordKey(key []byte) error {
	f := r.top()
	if f.hasKey(key) {
		if f.skipDuplicateKeys {
			return nil
		}
		return r.fail(newInvalidBencodeError(r.pos, "duplicate dictionary key %q", key))
	}
	f.addKey(key)
	return nil
}

func (r *Reader) ReadListHead() error {
	if err := r.checkValue("read list head"); err != nil {
		return err
	}
	if err := expectByte(r.buf, r.pos, listStart); err != nil {
		return r.fail(err)
	}
	r.consumed(r.pos+1, ListHead)
	r.push(listFrame, false)
	return nil
}

func (r *Reader) ReadListTail() error {
	if err := r.check(r.state == ListValue, "read list tail"); err != nil {
		return err
	}
	if err := expectByte(r.buf, r.pos, bencodeEnd); err != nil {
		return r.fail(err)
	}
	r.consumed(r.pos+1, ListTail)
	r.pop()
	return nil
}

func (r *Reader) ReadDictionaryHead() error {
	if err := r.checkValue("read dictionary head"); err != nil {
		return err
	}
	if err := expectByte(r.buf, r.pos, dictStart); err != nil {
		return r.fail(err)
	}
	r.consumed(r.pos+1, DictionaryHead)
	r.push(dictionaryFrame, r.skipDuplicateKeys)
	return nil
}

// ReadDictionaryTail closes the current dictionary. It is only valid between key/value pairs.
func (r *Reader) ReadDictionaryTail() error {
	if err := r.check(r.state == DictionaryKey, "read dictionary tail"); err != nil {
		return err
	}
	if err := expectByte(r.buf, r.pos, bencodeEnd); err != nil {
		return r.fail(err)
	}
	r.consumed(r.pos+1, DictionaryTail)
	r.pop()
	return nil
}

// ReadDictionary consumes a whole dictionary and records where each key's value starts.
//
// A repeated key keeps the first position. Unless skipDuplicateKeys is set, the repetition is reported once the
// dictionary has been fully consumed: the error carries the position of the second key, Position is left at the end
// of the dictionary and the Reader is in the Error state.
func (r *Reader) ReadDictionary(skipDuplicateKeys bool) (*Dictionary, error) {
	if err := r.ReadDictionaryHead(); err != nil {
		return nil, err
	}
	positions := make(map[string]int)
	var duplicate error
	for {
		t, err := r.ReadTokenType()
		if err != nil {
			return nil, err
		}
		if t == DictionaryTail {
			break
		}
		keyPos := r.pos
		key, next, err := scanString(r.buf, r.pos)
		if err != nil {
			return nil, r.fail(err)
		}
		r.consumed(next, Key)
		r.keyDone()
		if _, ok := positions[string(key)]; !ok {
			positions[string(key)] = r.pos
		} else if !skipDuplicateKeys && duplicate == nil {
			duplicate = newInvalidBencodeError(keyPos, "duplicate dictionary key %q", key)
		}
		if err := r.skipValue(false); err != nil {
			return nil, err
		}
	}
	if err := r.ReadDictionaryTail(); err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, r.machine.fail(duplicate)
	}
	return &Dictionary{positions: positions}, nil
}

// SkipValue consumes one whole value, including nested containers, without decoding it. Keys of skipped
// dictionaries are not checked for duplicates.
func (r *Reader) SkipValue() error {
	if err := r.checkValue("skip value"); err != nil {
		return err
	}
	if err := r.checkNotListTail("skip value"); err != nil {
		return err
	}
	return r.skipValue(false)
}

// checkNotListTail rejects value operations positioned on the closing byte of the enclosing list. Position and
// state are left alone so the caller can still read the tail.
func (r *Reader) checkNotListTail(op string) error {
	t, err := r.ReadTokenType()
	if err != nil {
		return err
	}
	if t == ListTail {
		return invalidOperation("cannot %s at end of list", op)
	}
	return nil
}

// SkipKey consumes the next key without recording it.
func (r *Reader) SkipKey() error {
	if err := r.check(r.state == DictionaryKey, "skip key"); err != nil {
		return err
	}
	return r.skipKey()
}

func (r *Reader) skipKey() error {
	_, next, err := scanString(r.buf, r.pos)
	if err != nil {
		return r.fail(err)
	}
	r.consumed(next, Key)
	r.keyDone()
	return nil
}

// skipValue consumes one value. Keys of nested dictionaries are only checked for duplicates when checkKeys is set.
func (r *Reader) skipValue(checkKeys bool) error {
	return r.walkValue(func(t TokenType) error {
		switch t {
		case Integer:
			_, err := r.ReadInteger()
			return err
		case String:
			_, err := r.ReadString()
			return err
		case Key:
			if checkKeys {
				_, err := r.ReadKey()
				return err
			}
			return r.skipKey()
		}
		return nil
	})
}

// walkValue drives the Reader through exactly one value starting in a value state. Container heads and tails are
// consumed here; scalars and keys are left to visit, which must consume them.
func (r *Reader) walkValue(visit func(TokenType) error) error {
	depth := len(r.frames)
	for {
		t, err := r.ReadTokenType()
		if err != nil {
			return err
		}
		switch t {
		case None:
			return nil
		case ListHead:
			err = r.ReadListHead()
		case ListTail:
			err = r.ReadListTail()
		case DictionaryHead:
			err = r.ReadDictionaryHead()
		case DictionaryTail:
			err = r.ReadDictionaryTail()
		}
		if err != nil {
			return err
		}
		if err := visit(t); err != nil {
			return err
		}
		if len(r.frames) == depth {
			return nil
		}
	}
}

// ReadValueTo reads one value of any type and writes it token for token to w. Dictionary keys are checked for
// duplicates on both sides.
func (r *Reader) ReadValueTo(w *Writer) error {
	if w == nil {
		return invalidOperation("cannot read value to a nil writer")
	}
	if err := r.checkValue("read value"); err != nil {
		return err
	}
	if err := r.checkNotListTail("read value"); err != nil {
		return err
	}
	return r.walkValue(func(t TokenType) error {
		switch t {
		case Integer:
			v, err := r.ReadInteger()
			if err != nil {
				return err
			}
			return r.writeFailed(w.WriteInteger(v))
		case String:
			b, err := r.ReadString()
			if err != nil {
				return err
			}
			return r.writeFailed(w.WriteString(b))
		case Key:
			return r.readKeyTo(w)
		case ListHead:
			return r.writeFailed(w.WriteListHead())
		case ListTail:
			return r.writeFailed(w.WriteListTail())
		case DictionaryHead:
			return r.writeFailed(w.WriteDictionaryHead())
		case DictionaryTail:
			return r.writeFailed(w.WriteDictionaryTail())
		}
		return nil
	})
}

// writeFailed moves the Reader to Error when the destination writer rejected a token the Reader already consumed.
func (r *Reader) writeFailed(err error) error {
	if err == nil {
		return nil
	}
	return r.machine.fail(err)
}

// ReadKeyTo reads one dictionary key and writes it to w as a key.
func (r *Reader) ReadKeyTo(w *Writer) error {
	if w == nil {
		return invalidOperation("cannot read key to a nil writer")
	}
	if err := r.check(r.state == DictionaryKey, "read key"); err != nil {
		return err
	}
	return r.readKeyTo(w)
}

func (r *Reader) readKeyTo(w *Writer) error {
	k, err := r.ReadKey()
	if err != nil {
		return err
	}
	return r.writeFailed(w.WriteKey(k))
}
