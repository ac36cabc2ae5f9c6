package commands

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug строит идентификатор заголовка из его текста: нижний регистр, диакритика латиницы снята,
// все кроме букв и цифр схлопнуто в один дефис. Кириллица (включая й и ё) сохраняется как есть.
func Slug(text string) string {
	var sb strings.Builder
	dash := false
	var base rune
	for _, r := range norm.NFKD.String(text) {
		switch {
		case unicode.Is(unicode.Mn, r):
			if base != 0 && !unicode.Is(unicode.Latin, base) {
				sb.WriteRune(r)
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			base = r
			sb.WriteRune(unicode.ToLower(r))
		default:
			dash = true
			base = 0
		}
	}
	if sb.Len() == 0 {
		return "heading"
	}
	return norm.NFC.String(sb.String())
}
