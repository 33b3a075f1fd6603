package translate

import "regexp"

const (
	English = "en"
	Arabic  = "ar"
)

var arabicScript = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)

// Detect classifies text as Arabic when it contains any Arabic-block rune.
func Detect(text string) string {
	if arabicScript.MatchString(text) {
		return Arabic
	}
	return English
}

func Supported(lang string) bool {
	return lang == English || lang == Arabic
}
