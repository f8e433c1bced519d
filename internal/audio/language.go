package audio

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is the narration language when none is given.
const DefaultLanguage = "id-ID"

// BaseLanguage reduces a language tag to its base language code, so
// "id-ID" becomes "id". Unparseable input falls back to the text before the
// first separator.
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultLanguage
	}

	t, err := language.Parse(tag)
	if err == nil {
		if base, conf := t.Base(); conf != language.No {
			return base.String()
		}
	}

	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
