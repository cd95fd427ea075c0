package lkrb

import (
	"bytes"
	"encoding/json"
	"io"
)

// Encode writes m as a complete LKRB container: the magic/version header
// followed by tag-length-payload framed sections (spec §4.3). Grounded on
// funxy's internal/vm/bundle.go SerializeBundle, generalized from one
// gob blob to independently-versioned typed sections.
func Encode(w io.Writer, m *Module) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	var verBuf [2]byte
	verBuf[0] = byte(Version)
	verBuf[1] = byte(Version >> 8)
	if _, err := w.Write(verBuf[:]); err != nil {
		return err
	}

	funcPayload, err := EncodeFunctionBytes(m.Entry)
	if err != nil {
		return err
	}
	if err := writeSection(w, TagFunc, funcPayload); err != nil {
		return err
	}

	if len(m.Meta) > 0 {
		metaPayload, err := json.Marshal(m.Meta)
		if err != nil {
			return err
		}
		if err := writeSection(w, TagMeta, metaPayload); err != nil {
			return err
		}
	}

	if len(m.Bundled) > 0 {
		modsPayload, err := encodeBundled(m.Bundled)
		if err != nil {
			return err
		}
		if err := writeSection(w, TagMods, modsPayload); err != nil {
			return err
		}
	}

	if len(m.Debug) > 0 {
		if err := writeSection(w, TagDbg, m.Debug); err != nil {
			return err
		}
	}

	return nil
}

func writeSection(w io.Writer, tag SectionTag, payload []byte) error {
	if _, err := w.Write(tag[:]); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// encodeBundled sorts paths so MODS section bytes are deterministic
// across encodes of the same bundle.
func encodeBundled(bundled map[string]*Module) ([]byte, error) {
	paths := make([]string, 0, len(bundled))
	for p := range bundled {
		paths = append(paths, p)
	}
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && paths[j-1] > paths[j]; j-- {
			paths[j-1], paths[j] = paths[j], paths[j-1]
		}
	}

	var buf bytes.Buffer
	if err := writeU32(&buf, uint32(len(paths))); err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := writeStr(&buf, p); err != nil {
			return nil, err
		}
		var inner bytes.Buffer
		if err := Encode(&inner, bundled[p]); err != nil {
			return nil, err
		}
		if err := writeBytes(&buf, inner.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
