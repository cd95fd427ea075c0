package lkrb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lollipopkit/lkr/internal/bytecode"
	"github.com/lollipopkit/lkr/internal/value"
)

// jsonPattern mirrors bytecode.PatternPlan for JSON serialization (spec
// §4.3: "pattern_plans[] (length-prefixed JSON)"). Value.Value payloads
// (Literal/Low/High) and the nested GuardFunc are embedded as raw LKRB
// bytes — JSON's []byte fields marshal as base64 — rather than given a
// second textual encoding, so there is exactly one Value/Function wire
// format in this codec.
type jsonPattern struct {
	Kind         string         `json:"kind"`
	Literal      []byte         `json:"literal,omitempty"`
	Slot         uint16         `json:"slot,omitempty"`
	Elems        []*jsonPattern `json:"elems,omitempty"`
	HasRest      bool           `json:"has_rest,omitempty"`
	RestSlot     uint16         `json:"rest_slot,omitempty"`
	Entries      map[string]*jsonPattern `json:"entries,omitempty"`
	Alternatives []*jsonPattern `json:"alternatives,omitempty"`
	Inner        *jsonPattern   `json:"inner,omitempty"`
	GuardFunc    []byte         `json:"guard_func,omitempty"`
	Low          []byte         `json:"low,omitempty"`
	High         []byte         `json:"high,omitempty"`
}

var patternKindNames = map[bytecode.PatternPlanKind]string{
	bytecode.PatternLiteral:  "literal",
	bytecode.PatternWildcard: "wildcard",
	bytecode.PatternVariable: "variable",
	bytecode.PatternList:     "list",
	bytecode.PatternMap:      "map",
	bytecode.PatternOr:       "or",
	bytecode.PatternGuard:    "guard",
	bytecode.PatternRange:    "range",
}

var patternKindByName = func() map[string]bytecode.PatternPlanKind {
	m := make(map[string]bytecode.PatternPlanKind, len(patternKindNames))
	for k, v := range patternKindNames {
		m[v] = k
	}
	return m
}()

func encodeValueBytes(v value.Value) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := EncodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValueBytes(b []byte) (value.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return DecodeValue(bytes.NewReader(b))
}

func toJSONPattern(p *bytecode.PatternPlan) (*jsonPattern, error) {
	if p == nil {
		return nil, nil
	}
	kind, ok := patternKindNames[p.Kind]
	if !ok {
		return nil, fmt.Errorf("lkrb: unknown pattern plan kind %d", p.Kind)
	}
	jp := &jsonPattern{
		Kind:     kind,
		Slot:     p.Slot,
		HasRest:  p.HasRest,
		RestSlot: p.RestSlot,
	}
	var err error
	if jp.Literal, err = encodeValueBytes(p.Literal); err != nil {
		return nil, err
	}
	if jp.Low, err = encodeValueBytes(p.Low); err != nil {
		return nil, err
	}
	if jp.High, err = encodeValueBytes(p.High); err != nil {
		return nil, err
	}
	for _, e := range p.Elems {
		je, err := toJSONPattern(e)
		if err != nil {
			return nil, err
		}
		jp.Elems = append(jp.Elems, je)
	}
	for _, a := range p.Alternatives {
		ja, err := toJSONPattern(a)
		if err != nil {
			return nil, err
		}
		jp.Alternatives = append(jp.Alternatives, ja)
	}
	if len(p.Entries) > 0 {
		jp.Entries = make(map[string]*jsonPattern, len(p.Entries))
		for k, v := range p.Entries {
			jv, err := toJSONPattern(v)
			if err != nil {
				return nil, err
			}
			jp.Entries[k] = jv
		}
	}
	if p.Inner != nil {
		if jp.Inner, err = toJSONPattern(p.Inner); err != nil {
			return nil, err
		}
	}
	if p.GuardFunc != nil {
		if jp.GuardFunc, err = EncodeFunctionBytes(p.GuardFunc); err != nil {
			return nil, err
		}
	}
	return jp, nil
}

func fromJSONPattern(jp *jsonPattern) (*bytecode.PatternPlan, error) {
	if jp == nil {
		return nil, nil
	}
	kind, ok := patternKindByName[jp.Kind]
	if !ok {
		return nil, fmt.Errorf("lkrb: unknown pattern plan kind %q", jp.Kind)
	}
	p := &bytecode.PatternPlan{
		Kind:     kind,
		Slot:     jp.Slot,
		HasRest:  jp.HasRest,
		RestSlot: jp.RestSlot,
	}
	var err error
	if p.Literal, err = decodeValueBytes(jp.Literal); err != nil {
		return nil, err
	}
	if p.Low, err = decodeValueBytes(jp.Low); err != nil {
		return nil, err
	}
	if p.High, err = decodeValueBytes(jp.High); err != nil {
		return nil, err
	}
	for _, je := range jp.Elems {
		e, err := fromJSONPattern(je)
		if err != nil {
			return nil, err
		}
		p.Elems = append(p.Elems, e)
	}
	for _, ja := range jp.Alternatives {
		a, err := fromJSONPattern(ja)
		if err != nil {
			return nil, err
		}
		p.Alternatives = append(p.Alternatives, a)
	}
	if len(jp.Entries) > 0 {
		p.Entries = make(map[string]*bytecode.PatternPlan, len(jp.Entries))
		for k, jv := range jp.Entries {
			v, err := fromJSONPattern(jv)
			if err != nil {
				return nil, err
			}
			p.Entries[k] = v
		}
	}
	if jp.Inner != nil {
		if p.Inner, err = fromJSONPattern(jp.Inner); err != nil {
			return nil, err
		}
	}
	if len(jp.GuardFunc) > 0 {
		if p.GuardFunc, err = DecodeFunctionBytes(jp.GuardFunc); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// encodePatternPlans serializes plans as length-prefixed JSON, per spec
// §4.3 ("v≥6 pattern_plans[] (length-prefixed JSON)").
func encodePatternPlans(plans []*bytecode.PatternPlan) ([]byte, error) {
	jps := make([]*jsonPattern, len(plans))
	for i, p := range plans {
		jp, err := toJSONPattern(p)
		if err != nil {
			return nil, err
		}
		jps[i] = jp
	}
	return json.Marshal(jps)
}

func decodePatternPlans(data []byte) ([]*bytecode.PatternPlan, error) {
	var jps []*jsonPattern
	if err := json.Unmarshal(data, &jps); err != nil {
		return nil, err
	}
	plans := make([]*bytecode.PatternPlan, len(jps))
	for i, jp := range jps {
		p, err := fromJSONPattern(jp)
		if err != nil {
			return nil, err
		}
		plans[i] = p
	}
	return plans, nil
}
