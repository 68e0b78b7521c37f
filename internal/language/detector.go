package language

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Detector resolves the source language of a text. The second return value
// is false when no confident detection is possible (unsupported language,
// mixed scripts, ambiguous input).
type Detector interface {
	Detect(text string) (string, bool)
}

// iso3ToCode maps whatlanggo's ISO 639-3 output to supported codes.
// Cyrillic Slavic languages are folded into Russian: short chat messages in
// Macedonian, Bulgarian, Serbian or Ukrainian are routinely misdetected and
// Russian is the supported language their speakers expect here.
var iso3ToCode = map[string]string{
	"eng": "en",
	"rus": "ru",
	"tha": "th",
	"jpn": "ja",
	"kor": "ko",
	"vie": "vi",
	"mkd": "ru",
	"bul": "ru",
	"srp": "ru",
	"ukr": "ru",
}

// WhatlangDetector detects languages with whatlanggo, falling back to
// script-range heuristics when the statistical detection is inconclusive.
type WhatlangDetector struct{}

func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{}
}

func (d *WhatlangDetector) Detect(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	info := whatlanggo.Detect(trimmed)
	if code, ok := iso3ToCode[whatlanggo.LangToString(info.Lang)]; ok && info.IsReliable() {
		return code, true
	}

	return detectByScript(trimmed)
}

// detectByScript classifies by Unicode script ranges. Texts mixing several
// scripts are rejected rather than guessed.
func detectByScript(text string) (string, bool) {
	var cyrillic, latin, japanese, korean, thai, vietnamese bool

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Han, r):
			japanese = true
		case unicode.Is(unicode.Hangul, r):
			korean = true
		case unicode.Is(unicode.Thai, r):
			thai = true
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic = true
		case isVietnameseRune(r):
			vietnamese = true
		case unicode.Is(unicode.Latin, r):
			latin = true
		}
	}

	// Vietnamese text always carries plain Latin letters alongside its
	// diacritics, so that pair does not count as mixed scripts.
	if vietnamese {
		latin = false
	}

	scripts := 0
	for _, present := range []bool{cyrillic, latin, japanese, korean, thai, vietnamese} {
		if present {
			scripts++
		}
	}
	if scripts != 1 {
		return "", false
	}

	switch {
	case cyrillic:
		return "ru", true
	case japanese:
		return "ja", true
	case korean:
		return "ko", true
	case thai:
		return "th", true
	case vietnamese:
		return "vi", true
	case latin:
		// Plain Latin text without Vietnamese diacritics defaults to English.
		return "en", true
	}
	return "", false
}

const vietnameseLetters = "àáảãạăằắẳẵặâầấẩẫậèéẻẽẹêềếểễệìíỉĩịòóỏõọôồốổỗộơờớởỡợùúủũụưừứửữựỳýỷỹỵđ"

func isVietnameseRune(r rune) bool {
	return strings.ContainsRune(vietnameseLetters, unicode.ToLower(r))
}
