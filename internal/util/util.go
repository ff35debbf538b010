package util

import (
	"sort"
	"strings"
)

// MakeTextList gives a nice list of things based on their display name.
//
// TODO: turn this into a generic function that accepts displayable OR ~string
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}

	output := ""

	if len(items) == 1 {
		output += items[0]
	} else if len(items) == 2 {
		output += items[0] + " and " + items[1]
	} else {
		// if its more than two, use an oxford comma
		items[len(items)-1] = "and " + items[len(items)-1]
		output += strings.Join(items, ", ")
	}

	return output
}

// OrderedKeys returns the keys of m sorted alphabetically, for iterating a
// map in a deterministic order.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ArticleFor returns "a" or "an" as appropriate for the given word, based on
// whether it begins with a vowel sound. If capitalize is true, the article is
// capitalized ("A"/"An"). Used by error-message formatting to build "expected
// a semicolon" / "expected an identifier" style phrases.
func ArticleFor(word string, capitalize bool) string {
	article := "a"

	if len(word) > 0 {
		switch word[0] {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			article = "an"
		}
	}

	if capitalize {
		article = strings.ToUpper(article[:1]) + article[1:]
	}

	return article
}
