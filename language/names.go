package language

const (
	English    = "en"
	Spanish    = "es"
	French     = "fr"
	German     = "de"
	Italian    = "it"
	Portuguese = "pt"
)

var names = map[string]string{
	English:    "English",
	Spanish:    "Spanish",
	French:     "French",
	German:     "German",
	Italian:    "Italian",
	Portuguese: "Portuguese",
}

// Name returns the English display name of a language code.
func Name(code string) string {
	if n, ok := names[code]; ok {
		return n
	}
	return "Unknown"
}

// Supported reports whether code is one of the recognised languages.
func Supported(code string) bool {
	_, ok := names[code]
	return ok
}

func displayName(code string) string {
	if Supported(code) {
		return Name(code)
	}
	return code
}
