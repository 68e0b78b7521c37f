// Package language holds the supported-language catalogue and the
// language-detection boundary used by the rest of the application.
package language

// Info describes a supported language.
type Info struct {
	Name string
	Flag string
}

// Supported maps ISO 639-1 codes to their display metadata.
var Supported = map[string]Info{
	"ru": {Name: "Russian", Flag: "🇷🇺"},
	"en": {Name: "English", Flag: "🇺🇸"},
	"th": {Name: "Thai", Flag: "🇹🇭"},
	"ja": {Name: "Japanese", Flag: "🇯🇵"},
	"ko": {Name: "Korean", Flag: "🇰🇷"},
	"vi": {Name: "Vietnamese", Flag: "🇻🇳"},
}

// defaultOrder keeps keyboard and default-preference ordering stable.
var defaultOrder = []string{"ru", "en", "th", "ja", "ko", "vi"}

// IsSupported reports whether code is one of the supported languages.
func IsSupported(code string) bool {
	_, ok := Supported[code]
	return ok
}

// DefaultSet returns the full supported-language set in stable order.
// Callers get a fresh slice and may modify it.
func DefaultSet() []string {
	out := make([]string, len(defaultOrder))
	copy(out, defaultOrder)
	return out
}

// Name returns the English display name for code, or the code itself.
func Name(code string) string {
	if info, ok := Supported[code]; ok {
		return info.Name
	}
	return code
}

// Flag returns the flag emoji for code, or a white flag for unknown codes.
func Flag(code string) string {
	if info, ok := Supported[code]; ok {
		return info.Flag
	}
	return "🏳️"
}

// CodeByName resolves a display name back to its language code.
// Used when parsing provider responses that label lines by language name.
func CodeByName(name string) (string, bool) {
	for code, info := range Supported {
		if info.Name == name {
			return code, true
		}
	}
	return "", false
}
