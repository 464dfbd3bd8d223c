package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateFallsBackToMessageID(t *testing.T) {
	Configure("testdata", "en")

	assert.Equal(t, "en", GetLanguage())
	assert.Equal(t, "hello", Translate("hello"))
	assert.Equal(t, "Alert 7 deleted.", Translate("Alert %d deleted.", 7))
}
