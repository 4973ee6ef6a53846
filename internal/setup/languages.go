// Package setup resolves the session parameters that the pipeline needs
// before it can start: the capture device and the language pair. Values
// missing from configuration are gathered interactively.
package setup

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// Language is one entry of the supported-language catalog.
type Language struct {
	// Code is the ISO 639-1 code passed to the providers.
	Code string
	// Name is the English display name.
	Name string
}

func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}

// Languages is the catalog of language choices offered during setup. Provider
// support varies; this is the superset the prompt offers.
var Languages = []Language{
	{Code: "ar", Name: "Arabic"},
	{Code: "zh", Name: "Chinese"},
	{Code: "cs", Name: "Czech"},
	{Code: "da", Name: "Danish"},
	{Code: "nl", Name: "Dutch"},
	{Code: "en", Name: "English"},
	{Code: "fi", Name: "Finnish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "el", Name: "Greek"},
	{Code: "he", Name: "Hebrew"},
	{Code: "hi", Name: "Hindi"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "id", Name: "Indonesian"},
	{Code: "it", Name: "Italian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "no", Name: "Norwegian"},
	{Code: "pl", Name: "Polish"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ro", Name: "Romanian"},
	{Code: "ru", Name: "Russian"},
	{Code: "es", Name: "Spanish"},
	{Code: "sv", Name: "Swedish"},
	{Code: "th", Name: "Thai"},
	{Code: "tr", Name: "Turkish"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "vi", Name: "Vietnamese"},
}

// fuzzyThreshold is the minimum Jaro-Winkler similarity for a misspelled
// language name to resolve to a catalog entry.
const fuzzyThreshold = 0.85

// MatchLanguage resolves user input to a catalog language. Exact code and
// name matches win; otherwise the closest name by Jaro-Winkler similarity is
// accepted when it clears the fuzzy threshold, so "germn" still resolves to
// German.
func MatchLanguage(input string) (Language, error) {
	query := strings.ToLower(strings.TrimSpace(input))
	if query == "" {
		return Language{}, fmt.Errorf("setup: empty language")
	}

	for _, l := range Languages {
		if query == l.Code || query == strings.ToLower(l.Name) {
			return l, nil
		}
	}

	var (
		best      Language
		bestScore float64
	)
	for _, l := range Languages {
		if s := matchr.JaroWinkler(query, strings.ToLower(l.Name), false); s > bestScore {
			best, bestScore = l, s
		}
	}
	if bestScore >= fuzzyThreshold {
		return best, nil
	}
	return Language{}, fmt.Errorf("setup: unknown language %q", input)
}
