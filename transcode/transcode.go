// This package drives the token Reader for whole documents: copying, validating and walking them.
package transcode

import (
	"fmt"

	"github.com/meow-io/go-bencode/bencode"
)

// TrailingDataError reports bytes left over after the top-level value.
type TrailingDataError struct {
	Position int
	Length   int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("bencode: %d bytes of trailing data at position %d", e.Length-e.Position, e.Position)
}

// Token is one token seen by Walk. Int is set for integers, Bytes for strings and keys; Bytes points into the source.
type Token struct {
	Type     bencode.TokenType
	Position int
	Depth    int
	Int      int64
	Bytes    []byte
}

// Walk reads one top-level value from src and calls fn for every token in order. Heads and tails of a container
// share a depth; its contents are one deeper. It returns the number of bytes consumed.
func Walk(src []byte, fn func(Token) error, opts ...bencode.ReaderOption) (int, error) {
	r := bencode.NewReader(src, opts...)
	for {
		tt, err := r.ReadTokenType()
		if err != nil {
			return r.Position(), err
		}
		if tt == bencode.None {
			return r.Position(), nil
		}
		tok := Token{Type: tt, Position: r.Position(), Depth: r.Depth()}
		switch tt {
		case bencode.Integer:
			tok.Int, err = r.ReadInteger()
		case bencode.String:
			tok.Bytes, err = r.ReadString()
		case bencode.Key:
			tok.Bytes, err = r.ReadKey()
		case bencode.ListHead:
			err = r.ReadListHead()
		case bencode.DictionaryHead:
			err = r.ReadDictionaryHead()
		case bencode.ListTail:
			tok.Depth--
			err = r.ReadListTail()
		case bencode.DictionaryTail:
			tok.Depth--
			err = r.ReadDictionaryTail()
		}
		if err != nil {
			return r.Position(), err
		}
		if err := fn(tok); err != nil {
			return r.Position(), err
		}
	}
}

// Validate checks that src holds exactly one well-formed value. Duplicate keys are rejected in every dictionary
// unless skipDuplicateKeys is set.
func Validate(src []byte, skipDuplicateKeys bool) error {
	n, err := Walk(src, func(Token) error { return nil }, bencode.WithSkipDuplicateKeys(skipDuplicateKeys))
	if err != nil {
		return err
	}
	if n != len(src) {
		return &TrailingDataError{Position: n, Length: len(src)}
	}
	return nil
}

// Copy re-encodes the value at the start of src into w and returns the number of bytes consumed.
func Copy(src []byte, w *bencode.Writer) (int, error) {
	r := bencode.NewReader(src)
	if err := r.ReadValueTo(w); err != nil {
		return r.Position(), err
	}
	return r.Position(), nil
}

// Recode copies a whole document through a Reader and Writer pair, returning the new encoding. The result equals
// src for any valid document.
func Recode(src []byte) ([]byte, error) {
	w := bencode.NewWriterSize(len(src))
	n, err := Copy(src, w)
	if err != nil {
		return nil, err
	}
	if n != len(src) {
		return nil, &TrailingDataError{Position: n, Length: len(src)}
	}
	return w.TransferEncoded()
}

// Keys lists the keys of a top-level dictionary with the offsets of their values.
func Keys(src []byte, skipDuplicateKeys bool) (*bencode.Dictionary, error) {
	r := bencode.NewReader(src)
	d, err := r.ReadDictionary(skipDuplicateKeys)
	if err != nil {
		return nil, err
	}
	if r.Position() != len(src) {
		return nil, &TrailingDataError{Position: r.Position(), Length: len(src)}
	}
	return d, nil
}
