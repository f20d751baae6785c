// Package translate provides best-effort translation and language detection
// through an external chat-completion service. Failures never reach the
// caller: translation falls back to the original text and detection falls
// back to English, with the failure visible only in logs.
package translate

import "context"

// Translator renders assistant responses in the user's language. It must
// never fail outward; on any error the original text is returned unchanged.
type Translator interface {
	Translate(ctx context.Context, text, lang string) string
}

// Detector guesses the ISO 639-1 language code of a user message. Short or
// undetectable input yields "en".
type Detector interface {
	Detect(ctx context.Context, text string) string
}

// Noop is the Translator and Detector used when no API key is configured.
type Noop struct{}

// Translate returns the text unchanged.
func (Noop) Translate(_ context.Context, text, _ string) string { return text }

// Detect always reports English.
func (Noop) Detect(_ context.Context, _ string) string { return "en" }

// langNames maps ISO 639-1 codes to the language names used in the
// translation prompt.
var langNames = map[string]string{
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"nl": "Dutch",
	"pl": "Polish",
	"tr": "Turkish",
	"vi": "Vietnamese",
	"th": "Thai",
	"id": "Indonesian",
	"sv": "Swedish",
	"no": "Norwegian",
	"da": "Danish",
	"fi": "Finnish",
}
