package lkrb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads a complete LKRB container. Sections whose tag Decode
// doesn't recognize are skipped using their length prefix, so a newer
// writer's extra sections never break an older reader (spec §4.3
// "forward-compatible unknown-tag skip").
func Decode(r io.Reader) (*Module, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, err
	}
	if magicBuf != Magic {
		return nil, fmt.Errorf("lkrb: bad magic %q, want %q", magicBuf, Magic)
	}

	var verBuf [2]byte
	if _, err := io.ReadFull(r, verBuf[:]); err != nil {
		return nil, err
	}
	version := uint16(verBuf[0]) | uint16(verBuf[1])<<8
	if version > Version {
		return nil, fmt.Errorf("lkrb: container version %d newer than supported ceiling %d", version, Version)
	}

	m := &Module{Bundled: map[string]*Module{}, Meta: map[string]string{}}
	sawFunc := false

	for {
		var tagBuf [4]byte
		_, err := io.ReadFull(r, tagBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		length, err := readU32(r)
		if err != nil {
			return nil, err
		}
		payload := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, err
			}
		}

		var tag SectionTag
		copy(tag[:], tagBuf[:])
		switch tag {
		case TagFunc:
			fn, err := DecodeFunction(bytes.NewReader(payload), version)
			if err != nil {
				return nil, err
			}
			if err := fn.Validate(); err != nil {
				return nil, err
			}
			m.Entry = fn
			sawFunc = true
		case TagMeta:
			meta := map[string]string{}
			if err := json.Unmarshal(payload, &meta); err != nil {
				return nil, err
			}
			m.Meta = meta
		case TagMods:
			bundled, err := decodeBundled(payload)
			if err != nil {
				return nil, err
			}
			m.Bundled = bundled
		case TagDbg:
			m.Debug = payload
		default:
			// Unknown section: already consumed via its length prefix, skip.
		}
	}

	if !sawFunc {
		return nil, fmt.Errorf("lkrb: container has no FUNC section")
	}
	return m, nil
}

func decodeBundled(payload []byte) (map[string]*Module, error) {
	r := bytes.NewReader(payload)
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	bundled := make(map[string]*Module, n)
	for i := uint32(0); i < n; i++ {
		path, err := readStr(r)
		if err != nil {
			return nil, err
		}
		inner, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		mod, err := Decode(bytes.NewReader(inner))
		if err != nil {
			return nil, err
		}
		bundled[path] = mod
	}
	return bundled, nil
}
