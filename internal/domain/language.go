package domain

// DetectLanguage makes a coarse guess at a text's language from its script.
// It exists only to tag stored messages; answers come back in whatever
// language the model chooses.
func DetectLanguage(s string) string {
	for _, r := range s {
		switch {
		case r >= 0x0E00 && r <= 0x0E7F:
			return "th"
		case r >= 0x4E00 && r <= 0x9FFF:
			return "zh"
		case r >= 0x3040 && r <= 0x30FF:
			return "ja"
		case r >= 0xAC00 && r <= 0xD7AF:
			return "ko"
		case r >= 0x0600 && r <= 0x06FF:
			return "ar"
		case r >= 0x0400 && r <= 0x04FF:
			return "ru"
		}
	}
	return "en"
}
