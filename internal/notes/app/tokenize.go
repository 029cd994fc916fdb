package app

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "because": {}, "as": {}, "what": {},
	"which": {}, "this": {}, "that": {}, "these": {}, "those": {}, "then": {}, "just": {}, "so": {}, "than": {},
	"such": {}, "both": {}, "through": {}, "about": {}, "for": {}, "is": {}, "of": {}, "while": {}, "during": {},
	"to": {}, "from": {}, "in": {}, "on": {}, "by": {}, "at": {}, "into": {}, "with": {}, "between": {},
}

// Tokenize разбивает текст на слова в нижнем регистре. Адреса почты и URL
// сохраняются целиком и добавляются в конец: сначала почта, затем URL.
func Tokenize(text string) []string {
	emails := emailPattern.FindAllString(text, -1)
	urls := urlPattern.FindAllString(text, -1)

	rest := text
	for _, group := range [][]string{emails, urls} {
		for _, item := range group {
			rest = strings.ReplaceAll(rest, item, " ")
		}
	}

	words := wordPattern.FindAllString(strings.ToLower(rest), -1)
	for _, item := range emails {
		words = append(words, strings.ToLower(item))
	}
	for _, item := range urls {
		words = append(words, strings.ToLower(item))
	}
	return words
}

// isCountable сообщает, что слово состоит только из букв и не является стоп-словом.
func isCountable(word string) bool {
	if _, stop := stopwords[word]; stop {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return word != ""
}

// VersionWordCount считает слова, разделенные пробелами.
func VersionWordCount(content string) int {
	return len(strings.Fields(content))
}
