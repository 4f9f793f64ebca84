package transcript

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage detects the dominant language of the segment text.
// Used as a fallback when the backend reports no language code.
func DetectLanguage(segments []Segment) language.Tag {
	if len(segments) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)

	for _, seg := range segments {
		lang := whatlanggo.DetectLang(seg.Text).Iso6391()
		if _, ok := langMap[lang]; !ok {
			langMap[lang] = 0
		}

		langMap[lang]++
	}

	// Get top language
	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
