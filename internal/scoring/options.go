package scoring

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
)

// ParseOptionList turns a stored or submitted multiclosed value into option identifiers.
// A JSON array is used when the text parses as one; otherwise the text is split on commas.
// Items are trimmed, empty items dropped and duplicates collapsed keeping first occurrence.
func ParseOptionList(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return []string{}
	}

	var items []string
	if strings.HasPrefix(text, "[") {
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(text), &elems); err == nil {
			for _, elem := range elems {
				if s, ok := scalarString(elem); ok {
					items = append(items, s)
				}
			}
			return cleanOptions(items)
		}
	}

	return cleanOptions(strings.Split(text, ","))
}

func cleanOptions(items []string) []string {
	trimmed := lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	nonEmpty := lo.Filter(trimmed, func(item string, _ int) bool {
		return item != ""
	})
	return lo.Uniq(nonEmpty)
}
