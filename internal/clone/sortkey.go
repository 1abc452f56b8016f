package clone

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey maps a new identifier to the string it is ordered by.
type SortKey func(identifier string) string

// ReversedBaseNamespace orders identifiers by their base namespace read
// backwards, so copies sharing a namespace tail cluster together.
func ReversedBaseNamespace(identifier string) string {
	runes := []rune(BaseNamespace(identifier))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Lexical orders identifiers by their full text.
func Lexical(identifier string) string {
	return identifier
}

// CreationOrder keeps identifiers in the order they were created.
func CreationOrder(string) string {
	return ""
}

// Sort key names accepted by SortKeyByName.
const (
	SortReversedNamespace = "reversed-namespace"
	SortLexical           = "lexical"
	SortCreation          = "creation"
)

// SortKeyByName resolves a configured sort key name. Empty selects the
// reversed namespace key.
func SortKeyByName(name string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SortReversedNamespace:
		return ReversedBaseNamespace, nil
	case SortLexical:
		return Lexical, nil
	case SortCreation:
		return CreationOrder, nil
	default:
		return nil, fmt.Errorf("clone: unknown sort key %q", name)
	}
}

// SortIdentifiers returns a stably sorted copy of ids.
func SortIdentifiers(ids []string, key SortKey) []string {
	if key == nil {
		key = ReversedBaseNamespace
	}
	type keyed struct {
		id  string
		key string
	}
	items := make([]keyed, len(ids))
	for i, id := range ids {
		items[i] = keyed{id: id, key: key(id)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].key < items[j].key
	})
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.id
	}
	return out
}
