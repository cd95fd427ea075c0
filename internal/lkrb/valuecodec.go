package lkrb

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lollipopkit/lkr/internal/value"
)

// constTag identifies the kind of a serialized constant. Only the kinds
// legal in an LKRB constant pool are representable (spec §3.2): any other
// constant kind is a compile-time error in Encode, never a silent loss
// (spec §4.3 invariants).
type constTag byte

const (
	tagNil constTag = iota
	tagBool
	tagInt
	tagFloat
	tagStr
	tagList
	tagMap
)

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeStr(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readStr(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// EncodeValue writes v in the LKRB constant representation. It fails (a
// compile-time error per spec, propagated here as an encode-time error)
// for any value kind outside Nil/Bool/Int/Float/Str/List/Map.
func EncodeValue(w io.Writer, v value.Value) error {
	switch t := v.(type) {
	case value.NilType:
		_, err := w.Write([]byte{byte(tagNil)})
		return err
	case value.Bool:
		b := byte(0)
		if t {
			b = 1
		}
		_, err := w.Write([]byte{byte(tagBool), b})
		return err
	case value.Int:
		if _, err := w.Write([]byte{byte(tagInt)}); err != nil {
			return err
		}
		return writeU64(w, uint64(int64(t)))
	case value.Float:
		if _, err := w.Write([]byte{byte(tagFloat)}); err != nil {
			return err
		}
		return writeU64(w, mathFloatBits(float64(t)))
	case value.Str:
		if _, err := w.Write([]byte{byte(tagStr)}); err != nil {
			return err
		}
		return writeStr(w, string(t))
	case *value.List:
		if _, err := w.Write([]byte{byte(tagList)}); err != nil {
			return err
		}
		if err := writeU32(w, uint32(t.Len())); err != nil {
			return err
		}
		for _, e := range t.Elems() {
			if err := EncodeValue(w, e); err != nil {
				return err
			}
		}
		return nil
	case *value.Map:
		if _, err := w.Write([]byte{byte(tagMap)}); err != nil {
			return err
		}
		keys := t.SortedKeys()
		if err := writeU32(w, uint32(len(keys))); err != nil {
			return err
		}
		for _, k := range keys {
			if err := writeStr(w, k); err != nil {
				return err
			}
			val, _ := t.Get(k)
			if err := EncodeValue(w, val); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("lkrb: unsupported constant kind %s", v.Type())
	}
}

// DecodeValue reads one value in the LKRB constant representation.
func DecodeValue(r io.Reader) (value.Value, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, err
	}
	switch constTag(tagBuf[0]) {
	case tagNil:
		return value.Nil, nil
	case tagBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return value.Bool(b[0] != 0), nil
	case tagInt:
		u, err := readU64(r)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(u)), nil
	case tagFloat:
		u, err := readU64(r)
		if err != nil {
			return nil, err
		}
		return value.Float(mathFloatFromBits(u)), nil
	case tagStr:
		s, err := readStr(r)
		if err != nil {
			return nil, err
		}
		return value.Str(s), nil
	case tagList:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		elems := make([]value.Value, n)
		for i := range elems {
			elems[i], err = DecodeValue(r)
			if err != nil {
				return nil, err
			}
		}
		return value.NewList(elems), nil
	case tagMap:
		n, err := readU32(r)
		if err != nil {
			return nil, err
		}
		m := value.NewMap()
		for i := uint32(0); i < n; i++ {
			k, err := readStr(r)
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			m = m.Put(k, v)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("lkrb: unknown constant tag %d", tagBuf[0])
	}
}
