package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure points gotext at the locale directory. Unknown languages fall
// back to returning the message ID, which doubles as the English string.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
