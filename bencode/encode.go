package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

type sortedValues []reflect.Value

func (s sortedValues) Len() int      { return len(s) }
func (s sortedValues) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortedValues) Less(i, j int) bool {
	return bytes.Compare(keyBytes(s[i]), keyBytes(s[j])) < 0
}

// keyBytes returns the encoded form of a map key. Only strings and byte arrays can be dictionary keys.
func keyBytes(v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.String:
		return []byte(v.String())
	case reflect.Array:
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return b
	default:
		panic(fmt.Sprintf("cannot use a type of %#v as a key", v.Kind()))
	}
}

func isKeyType(t reflect.Type) bool {
	return t.Kind() == reflect.String || (t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8)
}

// Compare two structs in shortlex-order based on their bencode-encoding.
// Return 0 for equal, -1 for a is less than b, and 1 for b is greater than a.
func Compare(a interface{}, b interface{}) (int, error) {
	abytes, err := Serialize(a)
	if err != nil {
		return 0, err
	}
	bbytes, err := Serialize(b)
	if err != nil {
		return 0, err
	}
	if len(abytes) < len(bbytes) {
		return -1, nil
	} else if len(abytes) > len(bbytes) {
		return 1, nil
	} else {
		return bytes.Compare(abytes, bbytes), nil
	}
}

// Serialize a ptr to a bencode-encoded byte-slice.
func Serialize(s interface{}) ([]byte, error) {
	val := reflect.ValueOf(s)
	if !val.IsValid() || val.Type().Kind() != reflect.Ptr {
		return nil, fmt.Errorf("this is not pointer")
	}
	w := NewWriter()
	if err := writeValue(w, val.Elem()); err != nil {
		return nil, err
	}
	return w.TransferEncoded()
}

func writeValue(w *Writer, v reflect.Value) error {
	switch v.Type().Kind() {
	case reflect.Bool:
		if v.Bool() {
			return w.WriteInteger(1)
		}
		return w.WriteInteger(0)
	case reflect.Int64, reflect.Int8:
		return w.WriteInteger(v.Int())
	case reflect.Uint64, reflect.Uint32, reflect.Uint8:
		n := v.Uint()
		if n > math.MaxInt64 {
			return fmt.Errorf("unsigned number %d does not fit in a bencode integer", n)
		}
		return w.WriteInteger(int64(n))
	case reflect.Array, reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]uint8, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return w.WriteString(b)
		}
		if err := w.WriteListHead(); err != nil {
			return err
		}
		for i := 0; i != v.Len(); i++ {
			if err := writeValue(w, v.Index(i)); err != nil {
				return err
			}
		}
		return w.WriteListTail()
	case reflect.String:
		return w.WriteString([]byte(v.String()))
	case reflect.Struct:
		return writeStruct(w, v)
	case reflect.Map:
		if !isKeyType(v.Type().Key()) {
			return fmt.Errorf("cannot sort a type of %#v", v.Type().Key().Kind())
		}
		if err := w.WriteDictionaryHead(); err != nil {
			return err
		}
		keys := v.MapKeys()
		sort.Sort(sortedValues(keys))
		for _, k := range keys {
			if err := w.WriteKey(keyBytes(k)); err != nil {
				return err
			}
			if err := writeValue(w, v.MapIndex(k)); err != nil {
				return err
			}
		}
		return w.WriteDictionaryTail()
	case reflect.Pointer:
		if v.IsNil() {
			return errors.New("cannot serialize a nil pointer")
		}
		return writeValue(w, v.Elem())
	default:
		return fmt.Errorf("unrecognized value type %#v %s", v, v.Type().Kind().String())
	}
}

// structFields returns the tagged exported fields of ty keyed by tag, and the tags in key order.
func structFields(ty reflect.Type) (map[string]reflect.StructField, []string, error) {
	fields := make(map[string]reflect.StructField)
	names := make([]string, 0, ty.NumField())
	for i := 0; i != ty.NumField(); i++ {
		f := ty.Field(i)
		if !f.IsExported() {
			continue
		}
		t := f.Tag.Get("bencode")
		if t == "" {
			return nil, nil, errors.New("expected bencode tag")
		}
		fields[t] = f
		names = append(names, t)
	}
	sort.Strings(names)
	return fields, names, nil
}

func writeStruct(w *Writer, v reflect.Value) error {
	fields, names, err := structFields(v.Type())
	if err != nil {
		return err
	}
	if err := w.WriteDictionaryHead(); err != nil {
		return err
	}
	for _, name := range names {
		if err := w.WriteKey([]byte(name)); err != nil {
			return err
		}
		if err := writeValue(w, v.FieldByIndex(fields[name].Index)); err != nil {
			return err
		}
	}
	return w.WriteDictionaryTail()
}
