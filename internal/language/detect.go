// Package language provides lightweight language handling: script-based
// detection and a model-backed translator. Processing happens in the
// pivot language; replies are translated back when the input differs.
package language

import "unicode"

// Pivot is the language all internal processing runs in.
const Pivot = "en"

// Detect guesses the dominant language of text from its script. It is
// deterministic and needs no collaborator: Japanese kana, Hangul, Han,
// Cyrillic, and Arabic are recognized; everything else defaults to the
// pivot. Short mixed-script texts resolve to the script with the most
// runes, with kana outranking Han so Japanese text containing kanji is
// not misread as Chinese.
func Detect(text string) string {
	var kana, han, hangul, cyrillic, arabic int

	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.In(r, unicode.Han):
			han++
		case unicode.In(r, unicode.Hangul):
			hangul++
		case unicode.In(r, unicode.Cyrillic):
			cyrillic++
		case unicode.In(r, unicode.Arabic):
			arabic++
		}
	}

	if kana > 0 {
		return "ja"
	}

	best, lang := 0, Pivot
	for _, c := range []struct {
		count int
		code  string
	}{
		{han, "zh"},
		{hangul, "ko"},
		{cyrillic, "ru"},
		{arabic, "ar"},
	} {
		if c.count > best {
			best, lang = c.count, c.code
		}
	}
	return lang
}
