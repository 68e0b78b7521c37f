package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Hello, how are you?", "en", []string{"ru", "th"})

	assert.Contains(t, prompt, "Translate this English text into Russian, Thai.")
	assert.Contains(t, prompt, "Russian: [translation]")
	assert.Contains(t, prompt, "Thai: [translation]")
	assert.Contains(t, prompt, "Text: Hello, how are you?")
}

func TestParseTranslations(t *testing.T) {
	content := "Russian: Привет, как дела?\nThai: สวัสดี สบายดีไหม\na trailing remark without a separator\n"

	got := parseTranslations(content, []string{"ru", "th"})

	assert.Equal(t, map[string]string{
		"ru": "Привет, как дела?",
		"th": "สวัสดี สบายดีไหม",
	}, got)
}

func TestParseTranslations_IgnoresUnrequestedAndUnknown(t *testing.T) {
	content := "Russian: Привет\nKlingon: nuqneH\nJapanese: こんにちは"

	got := parseTranslations(content, []string{"ru"})

	assert.Equal(t, map[string]string{"ru": "Привет"}, got)
}

func TestParseTranslations_TranslationMayContainColon(t *testing.T) {
	content := "Russian: время: 10:30"

	got := parseTranslations(content, []string{"ru"})

	assert.Equal(t, "время: 10:30", got["ru"])
}
