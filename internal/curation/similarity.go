package curation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/timmy/ghostline/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen drops short tokens ("vol", "2", "for").
const minTokenLen = 4

var stopwords = toSet(
	"about", "with", "your", "from", "this", "that", "into", "over",
	"their", "these", "those", "edition", "volume", "ultimate", "complete",
)

// boilerplate words say nothing about a title within its own category.
var boilerplate = map[domain.Category]map[string]struct{}{
	domain.CategoryPromptPack:    toSet("prompt", "prompts", "pack", "packs"),
	domain.CategoryAutomationKit: toSet("automation", "automations", "kit", "kits", "workflow", "workflows"),
	domain.CategoryBundle:        toSet("bundle", "bundles", "collection", "mega"),
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// words folds diacritics, lowercases and splits a title on anything that is
// not a letter or digit.
func words(title string) []string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		title,
	)
	if err != nil {
		folded = title
	}
	folded = cases.Lower(language.Und).String(folded)

	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Tokens normalizes a title into its sorted distinct significant tokens:
// diacritics folded, lowercased, punctuation split, stopwords and category
// boilerplate removed, short tokens dropped.
func Tokens(title string, category domain.Category) []string {
	parts := words(title)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, w := range parts {
		if len([]rune(w)) < minTokenLen {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if _, ok := boilerplate[category][w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns the token-set Jaccard index of a and b on a 0-100 scale.
// Two empty sets score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}

	inter := 0
	union := len(set)
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
			delete(set, t)
		} else {
			union++
		}
	}
	return float64(inter) / float64(union) * 100
}

// Similarity scores two titles of the same category. Titles with no
// significant tokens ("Prompt Pack", "AI SEO Kit") fall back to comparing
// their normalized words: 100 when equal, 0 otherwise.
func Similarity(a, b string, category domain.Category) float64 {
	ta, tb := Tokens(a, category), Tokens(b, category)
	if len(ta) == 0 && len(tb) == 0 {
		na, nb := strings.Join(words(a), " "), strings.Join(words(b), " ")
		if na != "" && na == nb {
			return 100
		}
		return 0
	}
	return Jaccard(ta, tb)
}
