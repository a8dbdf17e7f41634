package scoring

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// AnswerKind tags which shape a submitted answer arrived in
type AnswerKind int

const (
	AnswerMissing AnswerKind = iota
	AnswerRawString
	AnswerStringList
	AnswerPairList
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerRawString:
		return "raw_string"
	case AnswerStringList:
		return "string_list"
	case AnswerPairList:
		return "pair_list"
	default:
		return "missing"
	}
}

// PairAnswer is one term/definition association sent by the matching widget
type PairAnswer struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// AnswerValue holds a submitted answer in exactly one of its variants.
// The zero value is a missing answer.
type AnswerValue struct {
	kind  AnswerKind
	raw   string
	items []string
	pairs []PairAnswer
}

func NewRawAnswer(s string) AnswerValue {
	return AnswerValue{kind: AnswerRawString, raw: s}
}

func NewListAnswer(items ...string) AnswerValue {
	return AnswerValue{kind: AnswerStringList, items: append([]string(nil), items...)}
}

func NewPairAnswer(pairs ...PairAnswer) AnswerValue {
	return AnswerValue{kind: AnswerPairList, pairs: append([]PairAnswer(nil), pairs...)}
}

func (a AnswerValue) Kind() AnswerKind { return a.kind }

func (a AnswerValue) IsMissing() bool { return a.kind == AnswerMissing }

// Text renders the answer as a single string: the raw text, list items joined by commas,
// or pairs as "term – definition" lines.
func (a AnswerValue) Text() string {
	switch a.kind {
	case AnswerRawString:
		return a.raw
	case AnswerStringList:
		return strings.Join(a.items, ",")
	case AnswerPairList:
		lines := make([]string, 0, len(a.pairs))
		for _, p := range a.pairs {
			lines = append(lines, p.Term+" – "+p.Definition)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// Items returns the answer as a list of option identifiers. Raw strings go through the
// same permissive parsing as stored multiclosed keys.
func (a AnswerValue) Items() []string {
	switch a.kind {
	case AnswerRawString:
		return ParseOptionList(a.raw)
	case AnswerStringList:
		return append([]string(nil), a.items...)
	default:
		return nil
	}
}

// Pairs returns the pair list variant, nil for any other shape
func (a AnswerValue) Pairs() []PairAnswer {
	if a.kind != AnswerPairList {
		return nil
	}
	return append([]PairAnswer(nil), a.pairs...)
}

// UnmarshalJSON decodes string, array-of-scalars and array-of-pairs payloads.
// Any other JSON value is kept verbatim as a raw string.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = AnswerValue{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = NewRawAnswer(s)
		return nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		*a = decodeAnswerArray(elems)
		return nil
	default:
		*a = NewRawAnswer(string(trimmed))
		return nil
	}
}

// MarshalJSON writes the answer back in the shape it arrived in
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerRawString:
		return json.Marshal(a.raw)
	case AnswerStringList:
		return json.Marshal(a.items)
	case AnswerPairList:
		return json.Marshal(a.pairs)
	default:
		return []byte("null"), nil
	}
}

func decodeAnswerArray(elems []json.RawMessage) AnswerValue {
	if len(elems) == 0 {
		return NewListAnswer()
	}

	first := bytes.TrimSpace(elems[0])
	if len(first) > 0 && first[0] == '{' {
		pairs := make([]PairAnswer, 0, len(elems))
		for _, elem := range elems {
			var p PairAnswer
			if err := json.Unmarshal(elem, &p); err != nil {
				continue
			}
			pairs = append(pairs, p)
		}
		return NewPairAnswer(pairs...)
	}

	items := make([]string, 0, len(elems))
	for _, elem := range elems {
		if s, ok := scalarString(elem); ok {
			items = append(items, s)
		}
	}
	return NewListAnswer(items...)
}

func scalarString(elem json.RawMessage) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(elem, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
