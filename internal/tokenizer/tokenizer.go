// Package tokenizer segments text into word tokens for block
// classification. Segmentation follows Unicode word boundaries, with
// one cached configuration per supported language shared across
// concurrent callers.
package tokenizer

import (
	"sync"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/language"
)

// supported are the languages the classifier understands. Anything
// else canonicalizes to no segmenter and tokenizes to nothing.
var supported = []language.Tag{
	language.English,
	language.Japanese,
}

var matcher = language.NewMatcher(supported)

type segmenter struct {
	tag language.Tag
}

var (
	mu    sync.RWMutex
	cache = make(map[string]*segmenter)
)

// lookup resolves lang to a cached segmenter, or nil when the language
// is unsupported.
func lookup(lang string) *segmenter {
	mu.RLock()
	seg, ok := cache[lang]
	mu.RUnlock()
	if ok {
		return seg
	}

	mu.Lock()
	defer mu.Unlock()
	if seg, ok := cache[lang]; ok {
		return seg
	}

	seg = nil
	if tag, err := language.Parse(lang); err == nil {
		if _, _, conf := matcher.Match(tag); conf >= language.High {
			seg = &segmenter{tag: tag}
		}
	}
	cache[lang] = seg
	return seg
}

// Tokenize splits text into word tokens for the given language code.
// Tokens containing anything but letters are dropped, so numbers and
// punctuation never count toward classification. Unsupported languages
// yield nil.
func Tokenize(lang, text string) []string {
	if lookup(lang) == nil {
		return nil
	}

	var tokens []string
	iter := words.FromString(text)
	for iter.Next() {
		token := iter.Value()
		if isAllLetters(token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Supported reports whether lang resolves to a known language.
func Supported(lang string) bool {
	return lookup(lang) != nil
}

func isAllLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
