package bencode

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
)

// DecodeError reports a document that is valid bencode but does not match the target type.
type DecodeError struct {
	msg string
}

func newDecodeError(msg string, vars ...interface{}) *DecodeError {
	return &DecodeError{fmt.Sprintf(msg, vars...)}
}

func (e *DecodeError) Error() string {
	return e.msg
}

// Given the target interface, decode the following byte slice to it.
func Deserialize(buf []byte, t interface{}) error {
	val := reflect.ValueOf(t)
	if !val.IsValid() || val.Kind() != reflect.Pointer || val.IsNil() {
		return newDecodeError("expected a non-nil pointer")
	}
	r := NewReader(buf)
	out, err := readValue(r, val.Elem().Type())
	if err != nil {
		return err
	}
	val.Elem().Set(out)
	if r.Position() != r.Len() {
		return newDecodeError("expected to be at end of buffer, %d bytes left", r.Len()-r.Position())
	}
	return nil
}

func readUint(r *Reader, max uint64) (uint64, error) {
	num, err := r.ReadInteger()
	if err != nil {
		return 0, err
	}
	if num < 0 || uint64(num) > max {
		return 0, newDecodeError("expected number to be within 0 and %d, got %d", max, num)
	}
	return uint64(num), nil
}

func readInt(r *Reader, min, max int64) (int64, error) {
	num, err := r.ReadInteger()
	if err != nil {
		return 0, err
	}
	if num < min || num > max {
		return 0, newDecodeError("expected number to be within %d and %d, got %d", min, max, num)
	}
	return num, nil
}

func readValue(r *Reader, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Bool:
		num, err := readUint(r, 1)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(num == 1).Convert(t), nil
	case reflect.Int64:
		num, err := readInt(r, math.MinInt64, math.MaxInt64)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(num).Convert(t), nil
	case reflect.Int8:
		num, err := readInt(r, math.MinInt8, math.MaxInt8)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(int8(num)).Convert(t), nil
	case reflect.Uint8:
		num, err := readUint(r, math.MaxUint8)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(uint8(num)).Convert(t), nil
	case reflect.Uint32:
		num, err := readUint(r, math.MaxUint32)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(uint32(num)).Convert(t), nil
	case reflect.Uint64:
		num, err := readUint(r, math.MaxInt64)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(num).Convert(t), nil
	case reflect.String:
		b, err := r.ReadString()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(string(b)).Convert(t), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := r.ReadString()
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(bytes.Clone(b)).Convert(t), nil
		}
		a := reflect.MakeSlice(t, 0, 0)
		err := readList(r, func() error {
			val, err := readValue(r, t.Elem())
			if err != nil {
				return err
			}
			a = reflect.Append(a, val)
			return nil
		})
		return a, err
	case reflect.Array:
		a := reflect.New(t).Elem()
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := r.ReadString()
			if err != nil {
				return reflect.Value{}, err
			}
			if len(b) != t.Len() {
				return reflect.Value{}, newDecodeError("expected %d bytes, got %d", t.Len(), len(b))
			}
			reflect.Copy(a, reflect.ValueOf(b))
			return a, nil
		}
		i := 0
		err := readList(r, func() error {
			if i == t.Len() {
				return newDecodeError("expected %d elements, got more", t.Len())
			}
			val, err := readValue(r, t.Elem())
			if err != nil {
				return err
			}
			a.Index(i).Set(val)
			i++
			return nil
		})
		if err == nil && i != t.Len() {
			err = newDecodeError("expected %d elements, got %d", t.Len(), i)
		}
		return a, err
	case reflect.Struct:
		val := reflect.New(t).Elem()
		if err := readStruct(r, val); err != nil {
			return reflect.Value{}, err
		}
		return val, nil
	case reflect.Map:
		return readMap(r, t)
	case reflect.Pointer:
		out, err := readValue(r, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t.Elem())
		v.Elem().Set(out)
		return v, nil
	default:
		return reflect.Value{}, fmt.Errorf("unhandled kind %v", t.Kind())
	}
}

// readList consumes a list, calling readElem once per element.
func readList(r *Reader, readElem func() error) error {
	if err := r.ReadListHead(); err != nil {
		return err
	}
	for {
		tt, err := r.ReadTokenType()
		if err != nil {
			return err
		}
		if tt == ListTail {
			return r.ReadListTail()
		}
		if err := readElem(); err != nil {
			return err
		}
	}
}

func readMap(r *Reader, t reflect.Type) (reflect.Value, error) {
	keyType := t.Key()
	if !isKeyType(keyType) {
		return reflect.Value{}, newDecodeError("cannot use a type of %v as a key", keyType.Kind())
	}
	if err := r.ReadDictionaryHead(); err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMap(t)
	for {
		tt, err := r.ReadTokenType()
		if err != nil {
			return reflect.Value{}, err
		}
		if tt == DictionaryTail {
			break
		}
		k, err := r.ReadKey()
		if err != nil {
			return reflect.Value{}, err
		}
		var keyValue reflect.Value
		if keyType.Kind() == reflect.String {
			keyValue = reflect.ValueOf(string(k)).Convert(keyType)
		} else {
			if len(k) != keyType.Len() {
				return reflect.Value{}, newDecodeError("expected key of %d bytes, got %d", keyType.Len(), len(k))
			}
			keyValue = reflect.New(keyType).Elem()
			reflect.Copy(keyValue, reflect.ValueOf(k))
		}
		valValue, err := readValue(r, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		m.SetMapIndex(keyValue, valValue)
	}
	if err := r.ReadDictionaryTail(); err != nil {
		return reflect.Value{}, err
	}
	return m, nil
}

// readStruct expects exactly the tagged fields of the struct, in key order.
func readStruct(r *Reader, structValue reflect.Value) error {
	fields, names, err := structFields(structValue.Type())
	if err != nil {
		return err
	}
	if err := r.ReadDictionaryHead(); err != nil {
		return err
	}
	for _, name := range names {
		tt, err := r.ReadTokenType()
		if err != nil {
			return err
		}
		if tt != Key {
			return newDecodeError("missing key for %s", name)
		}
		key, err := r.ReadKey()
		if err != nil {
			return err
		}
		if string(key) != name {
			return newDecodeError("missing key for %s got %s instead", name, key)
		}
		val, err := readValue(r, fields[name].Type)
		if err != nil {
			return err
		}
		structValue.FieldByIndex(fields[name].Index).Set(val)
	}
	tt, err := r.ReadTokenType()
	if err != nil {
		return err
	}
	if tt != DictionaryTail {
		return newDecodeError("unexpected key at pos %d", r.Position())
	}
	return r.ReadDictionaryTail()
}
