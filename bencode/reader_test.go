package bencode

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/meow-io/go-bencode/internal/test"
	"github.com/stretchr/testify/require"
)

func requireInvalid(t *testing.T, err error, pos int) {
	t.Helper()
	var invalid *InvalidBencodeError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, pos, invalid.Position)
}

func requireUnsupported(t *testing.T, err error, pos int) {
	t.Helper()
	var unsupported *UnsupportedBencodeError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, pos, unsupported.Position)
}

func TestReadNestedList(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("li1ei11ei111ee"))

	require.Nil(r.ReadListHead())
	require.Equal(ListValue, r.State())
	require.Equal(1, r.Depth())

	var values []int64
	var positions []int
	for {
		tt, err := r.ReadTokenType()
		require.Nil(err)
		if tt == ListTail {
			break
		}
		require.Equal(Integer, tt)
		positions = append(positions, r.Position())
		v, err := r.ReadInteger()
		require.Nil(err)
		values = append(values, v)
	}
	require.Nil(r.ReadListTail())

	require.Equal([]int64{1, 11, 111}, values)
	require.Equal([]int{1, 4, 8}, positions)
	require.Equal(Final, r.State())
	require.Equal(14, r.Position())
	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(None, tt)
}

func TestReadEmptyContainers(t *testing.T) {
	require := require.New(t)

	r := NewReader([]byte("le"))
	require.Nil(r.ReadListHead())
	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(ListTail, tt)
	require.Nil(r.ReadListTail())
	require.Equal(Final, r.State())

	r = NewReader([]byte("de"))
	require.Nil(r.ReadDictionaryHead())
	tt, err = r.ReadTokenType()
	require.Nil(err)
	require.Equal(DictionaryTail, tt)
	require.Nil(r.ReadDictionaryTail())
	require.Equal(Final, r.State())
	require.Equal(DictionaryTail, r.TokenType())
}

func TestReadInteger(t *testing.T) {
	tt := []struct {
		value    string
		expected int64
	}{
		{"i0e", 0},
		{"i32e", 32},
		{"i-10000e", -10000},
		{"i9223372036854775807e", 9223372036854775807},
		{"i-9223372036854775808e", -9223372036854775808},
	}
	for _, tc := range tt {
		t.Run(fmt.Sprintf("ReadInteger of %s", tc.value), func(t *testing.T) {
			r := NewReader([]byte(tc.value))
			num, err := r.ReadInteger()
			require.Nil(t, err)
			require.Equal(t, tc.expected, num)
			require.Equal(t, len(tc.value), r.Position())
			require.Equal(t, Final, r.State())
		})
	}
}

func TestReadIntegerErrors(t *testing.T) {
	tt := []struct {
		value       string
		pos         int
		unsupported bool
	}{
		{"i03e", 2, false},
		{"i-0e", 2, false},
		{"ie", 1, false},
		{"i--1e", 2, false},
		{"i1x", 2, false},
		{"i12", 3, false},
		{"i", 1, false},
		{"i-", 2, false},
		{"x", 0, false},
		{"i9223372036854775808e", 1, true},
		{"i-9223372036854775809e", 2, true},
		{"i123456789012345678901234567890e", 1, true},
		// syntax is checked before range
		{"i123456789012345678901234567890", 31, false},
	}
	for _, tc := range tt {
		t.Run(fmt.Sprintf("ReadInteger of %s", tc.value), func(t *testing.T) {
			r := NewReader([]byte(tc.value))
			_, err := r.ReadInteger()
			if tc.unsupported {
				requireUnsupported(t, err, tc.pos)
			} else {
				requireInvalid(t, err, tc.pos)
			}
			expectedPos := tc.pos + 1
			if expectedPos > len(tc.value) {
				expectedPos = len(tc.value)
			}
			require.Equal(t, expectedPos, r.Position())
			require.Equal(t, Error, r.State())
			require.Equal(t, err, r.Err())
		})
	}
}

func TestReadString(t *testing.T) {
	require := require.New(t)

	r := NewReader([]byte("4:spam"))
	n, err := r.ReadStringLength()
	require.Nil(err)
	require.Equal(4, n)
	require.Equal(0, r.Position())

	b, err := r.ReadString()
	require.Nil(err)
	require.Equal([]byte("spam"), b)
	require.Equal(6, r.Position())
	require.Equal(String, r.TokenType())

	r = NewReader([]byte("0:"))
	b, err = r.ReadString()
	require.Nil(err)
	require.Len(b, 0)
	require.Equal(Final, r.State())
}

func TestReadStringIsAView(t *testing.T) {
	require := require.New(t)
	buf := []byte("l4:spam4:eggse")
	r := NewReader(buf)
	require.Nil(r.ReadListHead())
	b, err := r.ReadString()
	require.Nil(err)
	require.Equal(4, cap(b))

	// appending must not clobber the next token
	_ = append(b, 'X')
	require.Equal("l4:spam4:eggse", string(buf))
}

func TestReadStringErrors(t *testing.T) {
	tt := []struct {
		value       string
		pos         int
		unsupported bool
	}{
		{"04:spam", 1, false},
		{"5:spam", 6, false},
		{"3:ab", 4, false},
		{"4spam", 1, false},
		{"4", 1, false},
		{"-1:a", 0, false},
		{"99999999999999999999999999:x", 0, true},
	}
	for _, tc := range tt {
		t.Run(fmt.Sprintf("ReadString of %s", tc.value), func(t *testing.T) {
			r := NewReader([]byte(tc.value))
			_, err := r.ReadString()
			if tc.unsupported {
				requireUnsupported(t, err, tc.pos)
			} else {
				requireInvalid(t, err, tc.pos)
			}
			expectedPos := tc.pos + 1
			if expectedPos > len(tc.value) {
				expectedPos = len(tc.value)
			}
			require.Equal(t, expectedPos, r.Position())
		})
	}
}

func TestReadTokenTypeErrors(t *testing.T) {
	require := require.New(t)

	r := NewReader([]byte("x"))
	_, err := r.ReadTokenType()
	requireInvalid(t, err, 0)
	require.Contains(err.Error(), "expected 'd', 'i', 'l', or '0'-'9'")
	require.Equal(1, r.Position())

	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(None, tt)

	r = NewReader(nil)
	_, err = r.ReadTokenType()
	requireInvalid(t, err, 0)
	require.Contains(err.Error(), "unexpected end of data")
	require.Equal(0, r.Position())

	r = NewReader([]byte("di1ee"))
	require.Nil(r.ReadDictionaryHead())
	_, err = r.ReadTokenType()
	requireInvalid(t, err, 1)
	require.Contains(err.Error(), "expected 'e' or '0'-'9'")

	r = NewReader([]byte("lx"))
	require.Nil(r.ReadListHead())
	_, err = r.ReadTokenType()
	requireInvalid(t, err, 1)
	require.Contains(err.Error(), "expected 'd', 'e', 'i', 'l', or '0'-'9'")
}

func TestErrorStateIsSticky(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("li1exe"))
	require.Nil(r.ReadListHead())
	_, err := r.ReadInteger()
	require.Nil(err)
	_, err = r.ReadInteger()
	requireInvalid(t, err, 4)
	require.Equal(5, r.Position())

	_, err = r.ReadString()
	require.ErrorIs(err, ErrInvalidOperation)
	require.NotErrorIs(r.Err(), ErrInvalidOperation)
	require.ErrorIs(r.ReadListTail(), ErrInvalidOperation)
	require.ErrorIs(r.SkipValue(), ErrInvalidOperation)
	require.Equal(5, r.Position())
	require.Equal(Error, r.State())
}

func TestStateGating(t *testing.T) {
	require := require.New(t)

	r := NewReader([]byte("i1e"))
	err := r.ReadListTail()
	require.ErrorIs(err, ErrInvalidOperation)
	require.Equal(0, r.Position())
	require.Equal(Initial, r.State())

	// the message does not depend on the input
	other := NewReader([]byte("garbage"))
	require.Equal(err.Error(), other.ReadListTail().Error())

	_, err = r.ReadKey()
	require.ErrorIs(err, ErrInvalidOperation)
	require.ErrorIs(r.ReadDictionaryTail(), ErrInvalidOperation)
	require.ErrorIs(r.SkipKey(), ErrInvalidOperation)
	require.Equal(0, r.Position())

	r = NewReader([]byte("d1:ai1ee"))
	require.Nil(r.ReadDictionaryHead())
	_, err = r.ReadString()
	require.ErrorIs(err, ErrInvalidOperation)
	_, err = r.ReadInteger()
	require.ErrorIs(err, ErrInvalidOperation)
	_, _, err = r.TryReadString(make([]byte, 8))
	require.ErrorIs(err, ErrInvalidOperation)
	require.ErrorIs(r.ReadListHead(), ErrInvalidOperation)
	require.Equal(1, r.Position())

	_, err = r.ReadKey()
	require.Nil(err)
	require.Equal(DictionaryValue, r.State())
	require.ErrorIs(r.ReadDictionaryTail(), ErrInvalidOperation)
	_, err = r.ReadKeyLength()
	require.ErrorIs(err, ErrInvalidOperation)
	require.Equal(4, r.Position())

	_, err = r.ReadInteger()
	require.Nil(err)
	require.Nil(r.ReadDictionaryTail())

	_, err = r.ReadInteger()
	require.ErrorIs(err, ErrInvalidOperation)
	require.Equal(Final, r.State())
}

func TestTryReadStringUndersized(t *testing.T) {
	for _, value := range []string{"1:a", "4:spam", "10:abcdefghij", "3:\x00\xff\x01"} {
		t.Run(value, func(t *testing.T) {
			require := require.New(t)
			r := NewReader([]byte(value))
			length, err := r.ReadStringLength()
			require.Nil(err)

			n, ok, err := r.TryReadString(make([]byte, length-1))
			require.Nil(err)
			require.False(ok)
			require.Equal(0, n)
			require.Equal(0, r.Position())
			require.Equal(Initial, r.State())

			dst := make([]byte, length+2)
			n, ok, err = r.TryReadString(dst)
			require.Nil(err)
			require.True(ok)
			require.Equal(length, n)
			require.Equal(value[len(value)-length:], string(dst[:n]))
			require.Equal(len(value), r.Position())
		})
	}
}

func TestTryReadKeyUndersized(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("d4:spami1e4:eggsi2ee"))
	require.Nil(r.ReadDictionaryHead())

	length, err := r.ReadKeyLength()
	require.Nil(err)
	require.Equal(4, length)

	n, ok, err := r.TryReadKey(make([]byte, 3))
	require.Nil(err)
	require.False(ok)
	require.Equal(0, n)
	require.Equal(1, r.Position())
	require.Equal(DictionaryKey, r.State())

	dst := make([]byte, 4)
	n, ok, err = r.TryReadKey(dst)
	require.Nil(err)
	require.True(ok)
	require.Equal("spam", string(dst[:n]))
	require.Equal(DictionaryValue, r.State())

	require.Nil(r.SkipValue())
	n, ok, err = r.TryReadKey(dst)
	require.Nil(err)
	require.True(ok)
	require.Equal("eggs", string(dst[:n]))
}

func TestReadKeyDuplicate(t *testing.T) {
	require := require.New(t)
	buf := []byte("d1:ai1e1:ai2ee")

	r := NewReader(buf)
	require.Nil(r.ReadDictionaryHead())
	_, err := r.ReadKey()
	require.Nil(err)
	_, err = r.ReadInteger()
	require.Nil(err)
	_, err = r.ReadKey()
	requireInvalid(t, err, 7)
	require.Contains(err.Error(), `duplicate dictionary key "a"`)
	require.Equal(8, r.Position())

	r = NewReader(buf, WithSkipDuplicateKeys(true))
	require.Nil(r.ReadDictionaryHead())
	_, err = r.ReadKey()
	require.Nil(err)
	require.Nil(r.SkipValue())
	key, err := r.ReadKey()
	require.Nil(err)
	require.Equal("a", string(key))
}

func TestReadKeyChecksDuplicatesPerDictionary(t *testing.T) {
	require := require.New(t)
	for _, doc := range []string{"ld1:ai1eed1:ai2eee", "d1:ad1:ai1ee1:bd1:ai2eee"} {
		r := NewReader([]byte(doc))
		require.Nil(r.ReadValueTo(NewWriter()))
		require.Equal(Final, r.State())
	}
}

func TestReadDictionarySkipDuplicates(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("d1:ai1e1:ai2ee"))
	d, err := r.ReadDictionary(true)
	require.Nil(err)
	require.Equal(1, d.Len())
	pos, ok := d.PositionOf("a")
	require.True(ok)
	require.Equal(4, pos)
	require.Equal(14, r.Position())
	require.Equal(Final, r.State())
}

func TestReadDictionaryStrictDuplicates(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("d1:ai1e1:ai2ee"))
	d, err := r.ReadDictionary(false)
	require.Nil(d)
	requireInvalid(t, err, 7)
	require.Equal(14, r.Position())
	require.Equal(Error, r.State())

	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(None, tt)
}

func TestReadDictionaryPositions(t *testing.T) {
	require := require.New(t)
	buf := []byte("d3:bar4:spam3:fooi42ee")
	r := NewReader(buf)
	d, err := r.ReadDictionary(false)
	require.Nil(err)
	require.Equal([]string{"bar", "foo"}, d.Keys())

	pos, ok := d.Position([]byte("bar"))
	require.True(ok)
	require.Equal(6, pos)
	_, ok = d.PositionOf("baz")
	require.False(ok)

	pos, _ = d.PositionOf("foo")
	require.Equal(17, pos)
	vr := NewReaderAt(buf, pos)
	v, err := vr.ReadInteger()
	require.Nil(err)
	require.Equal(int64(42), v)
	require.Equal(21, vr.Position())
}

func TestReadDictionaryNested(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("ld1:xli1eee1:ze"))
	require.Nil(r.ReadListHead())
	d, err := r.ReadDictionary(false)
	require.Nil(err)
	pos, _ := d.PositionOf("x")
	require.Equal(5, pos)
	require.Equal(ListValue, r.State())
	s, err := r.ReadString()
	require.Nil(err)
	require.Equal("z", string(s))
	require.Nil(r.ReadListTail())
}

func TestUnsortedKeysAreAccepted(t *testing.T) {
	require := require.New(t)
	// canonical bencode requires sorted keys; only uniqueness is enforced
	buf := []byte("d1:bi1e1:ai2ee")
	d, err := NewReader(buf).ReadDictionary(false)
	require.Nil(err)
	require.Equal([]string{"a", "b"}, d.Keys())

	w := NewWriter()
	require.Nil(NewReader(buf).ReadValueTo(w))
	out, err := w.Encode()
	require.Nil(err)
	require.Equal(buf, out)
}

func TestSkipValueIgnoresDuplicateKeys(t *testing.T) {
	require := require.New(t)
	buf := []byte("d1:ad1:xi1e1:xi2ee1:bi3ee")

	r := NewReader(buf)
	require.Nil(r.SkipValue())
	require.Equal(len(buf), r.Position())
	require.Equal(Final, r.State())

	r = NewReader(buf)
	err := r.ReadValueTo(NewWriter())
	requireInvalid(t, err, 11)
}

func TestSkipKey(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("d1:ai1ee"))
	require.Nil(r.ReadDictionaryHead())
	require.Nil(r.SkipKey())
	require.Equal(DictionaryValue, r.State())
	require.Equal(4, r.Position())
	v, err := r.ReadInteger()
	require.Nil(err)
	require.Equal(int64(1), v)
	require.Nil(r.ReadDictionaryTail())
	require.Equal(Final, r.State())
}

func TestSkipValueErrors(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("l1:ai1e"))
	err := r.SkipValue()
	requireInvalid(t, err, 7)
	require.Equal(7, r.Position())
	require.Equal(Error, r.State())
}

func TestSkipValueAtEndOfList(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("lli1eei2eli3eee"))
	require.Nil(r.ReadListHead())
	require.Nil(r.ReadListHead())
	_, err := r.ReadInteger()
	require.Nil(err)

	require.ErrorIs(r.SkipValue(), ErrInvalidOperation)
	require.Equal(5, r.Position())
	require.Equal(ListValue, r.State())
	require.Equal(2, r.Depth())

	require.Nil(r.ReadListTail())
	require.Nil(r.SkipValue())
	require.Equal(9, r.Position())
	require.Nil(r.SkipValue())
	require.Equal(14, r.Position())
	require.ErrorIs(r.SkipValue(), ErrInvalidOperation)
	require.Nil(r.ReadListTail())
	require.Equal(Final, r.State())
}

func TestSkipValueInEmptyList(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("le"))
	require.Nil(r.ReadListHead())
	require.ErrorIs(r.SkipValue(), ErrInvalidOperation)
	require.Equal(1, r.Position())
	require.Equal(ListValue, r.State())
	require.Nil(r.ReadListTail())
	require.Equal(Final, r.State())
}

func TestReadValueToAtEndOfList(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("lli1eei2ee"))
	require.Nil(r.ReadListHead())
	require.Nil(r.ReadListHead())
	_, err := r.ReadInteger()
	require.Nil(err)

	w := NewWriter()
	require.ErrorIs(r.ReadValueTo(w), ErrInvalidOperation)
	require.Equal(5, r.Position())
	require.Equal(ListValue, r.State())
	require.Equal(2, r.Depth())
	require.Equal(0, w.Position())
	require.Equal(Initial, w.State())

	require.Nil(r.ReadListTail())
	require.Nil(r.ReadValueTo(w))
	encoded, err := w.Encode()
	require.Nil(err)
	require.Equal("i2e", string(encoded))
}

func TestReadValueToWriterFailure(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("li1ei2ei3ee"))
	err := r.ReadValueTo(NewFixedWriter(make([]byte, 4)))

	var tooSmall *DestinationTooSmallError
	require.ErrorAs(err, &tooSmall)
	require.Equal(7, r.Position())
	require.Equal(Error, r.State())
	require.ErrorIs(r.Err(), err)

	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(None, tt)
	require.ErrorIs(r.SkipValue(), ErrInvalidOperation)
}

func TestReadKeyToWriterFailure(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("d3:keyi1ee"))
	require.Nil(r.ReadDictionaryHead())
	w := NewFixedWriter(make([]byte, 3))
	require.Nil(w.WriteDictionaryHead())

	var tooSmall *DestinationTooSmallError
	require.ErrorAs(r.ReadKeyTo(w), &tooSmall)
	require.Equal(6, r.Position())
	require.Equal(Error, r.State())
}

func TestRoundTrip(t *testing.T) {
	for _, doc := range test.Documents {
		t.Run(fmt.Sprintf("%q", doc), func(t *testing.T) {
			require := require.New(t)
			r := NewReader([]byte(doc))
			w := NewWriter()
			require.Nil(r.ReadValueTo(w))
			require.Equal(len(doc), r.Position())
			require.Equal(Final, r.State())
			out, err := w.Encode()
			require.Nil(err)
			require.Equal(doc, string(out))
		})
	}
}

func TestPositionAdvancesByTokenLength(t *testing.T) {
	for _, doc := range test.Documents {
		t.Run(fmt.Sprintf("%q", doc), func(t *testing.T) {
			require := require.New(t)
			r := NewReader([]byte(doc))
			for {
				tt, err := r.ReadTokenType()
				require.Nil(err)
				if tt == None {
					break
				}
				before := r.Position()
				var size int
				switch tt {
				case Integer:
					v, err := r.ReadInteger()
					require.Nil(err)
					size = len(fmt.Sprintf("i%de", v))
				case String, Key:
					var b []byte
					if tt == Key {
						b, err = r.ReadKey()
					} else {
						b, err = r.ReadString()
					}
					require.Nil(err)
					size = len(fmt.Sprintf("%d:", len(b))) + len(b)
				case ListHead:
					size, err = 1, r.ReadListHead()
				case ListTail:
					size, err = 1, r.ReadListTail()
				case DictionaryHead:
					size, err = 1, r.ReadDictionaryHead()
				case DictionaryTail:
					size, err = 1, r.ReadDictionaryTail()
				}
				require.Nil(err)
				require.Equal(before+size, r.Position())
				require.Equal(tt, r.TokenType())
			}
			require.Equal(len(doc), r.Position())
		})
	}
}

func TestMalformedDocuments(t *testing.T) {
	for _, doc := range test.Malformed {
		t.Run(fmt.Sprintf("%q", doc), func(t *testing.T) {
			require := require.New(t)
			r := NewReader([]byte(doc))
			err := r.ReadValueTo(NewWriter())
			require.NotNil(err)
			pos, ok := ErrorPosition(err)
			require.True(ok)
			require.LessOrEqual(pos, len(doc))
			require.Equal(Error, r.State())
			tt, err := r.ReadTokenType()
			require.Nil(err)
			require.Equal(None, tt)
		})
	}
}

func TestReadValueToNilWriter(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("i1e"))
	require.ErrorIs(r.ReadValueTo(nil), ErrInvalidOperation)
	require.Equal(0, r.Position())
	require.Equal(Initial, r.State())
}

func TestReadKeyTo(t *testing.T) {
	require := require.New(t)
	buf := []byte("d3:keyli1eee")
	r := NewReader(buf)
	w := NewWriter()

	require.ErrorIs(r.ReadKeyTo(w), ErrInvalidOperation)
	require.Nil(r.ReadDictionaryHead())
	require.Nil(w.WriteDictionaryHead())
	require.ErrorIs(r.ReadKeyTo(nil), ErrInvalidOperation)
	require.Nil(r.ReadKeyTo(w))
	require.Nil(r.ReadValueTo(w))
	require.Nil(r.ReadDictionaryTail())
	require.Nil(w.WriteDictionaryTail())

	out, err := w.Encode()
	require.Nil(err)
	require.Equal(buf, out)
}

func TestTrailingDataIsNotConsumed(t *testing.T) {
	require := require.New(t)
	r := NewReader([]byte("i1ei2e"))
	_, err := r.ReadInteger()
	require.Nil(err)
	tt, err := r.ReadTokenType()
	require.Nil(err)
	require.Equal(None, tt)
	require.Equal(3, r.Position())
	require.Equal(6, r.Len())
}

func TestDeepNesting(t *testing.T) {
	require := require.New(t)
	depth := 100000
	doc := strings.Repeat("l", depth) + strings.Repeat("e", depth)
	r := NewReader([]byte(doc))
	w := NewWriter()
	require.Nil(r.ReadValueTo(w))
	out, err := w.Encode()
	require.Nil(err)
	require.Equal(doc, string(out))
}

func TestErrorPosition(t *testing.T) {
	require := require.New(t)
	_, ok := ErrorPosition(errors.New("nope"))
	require.False(ok)
	pos, ok := ErrorPosition(newUnsupportedBencodeError(3, "too big"))
	require.True(ok)
	require.Equal(3, pos)
}
