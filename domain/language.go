package domain

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// NormalizeLanguage lowercases a language code and strips any region
// subtag ("pt-BR" -> "pt").
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// DetectLanguage guesses the ISO 639-1 code of a text sample.
// Returns "" when detection is unreliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
