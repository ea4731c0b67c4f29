// Package tokenizer turns raw document text into the ordered feature terms the
// vectorizer consumes: markup is stripped, text is case-folded and split into
// words, stopwords are dropped, words are stemmed, and optional n-grams are
// appended.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults for Config fields left at zero.
const (
	DefaultNGramMax       = 1
	DefaultMinTokenLength = 2
	// MaxNGram caps NGramMax.
	MaxNGram = 5
	// NGramSeparator joins the words of an n-gram term.
	NGramSeparator = "_"
)

// Config configures a Tokenizer.
type Config struct {
	// NGramMax is the longest n-gram emitted (1 = unigrams only).
	NGramMax int
	// MinTokenLength drops shorter words (counted in runes, before stemming).
	MinTokenLength int
	// Stopwords replaces the built-in English list when non-nil.
	Stopwords []string
}

// Tokenizer is the default text-to-terms pipeline. It is safe for concurrent use.
type Tokenizer struct {
	ngramMax  int
	minLength int
	stopwords map[string]struct{}
}

// New creates a Tokenizer, filling zero fields with defaults.
func New(cfg Config) *Tokenizer {
	if cfg.NGramMax <= 0 {
		cfg.NGramMax = DefaultNGramMax
	}
	if cfg.NGramMax > MaxNGram {
		cfg.NGramMax = MaxNGram
	}
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = DefaultMinTokenLength
	}
	words := cfg.Stopwords
	if words == nil {
		words = englishStopwords
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{ngramMax: cfg.NGramMax, minLength: cfg.MinTokenLength, stopwords: stop}
}

// Tokenize returns the feature terms of text: stemmed unigrams in text order,
// followed by n-grams of increasing length.
func (t *Tokenizer) Tokenize(text string) []string {
	folded := cases.Lower(language.Und).String(StripMarkup(text))

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	stems := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < t.minLength {
			continue
		}
		if _, ok := t.stopwords[w]; ok {
			continue
		}
		stems = append(stems, english.Stem(w, false))
	}

	if t.ngramMax == 1 {
		return stems
	}

	terms := make([]string, len(stems), len(stems)*t.ngramMax)
	copy(terms, stems)
	for n := 2; n <= t.ngramMax; n++ {
		for i := 0; i+n <= len(stems); i++ {
			terms = append(terms, strings.Join(stems[i:i+n], NGramSeparator))
		}
	}
	return terms
}

// StripMarkup replaces every markup tag with a space and keeps the decoded text.
// Content of script and style elements is dropped.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
}
