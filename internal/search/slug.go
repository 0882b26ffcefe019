package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e", 'є': "ye",
	'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "yi", 'й': "y", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch", 'ь': "", 'ю': "yu",
	'я': "ya", 'ы': "y", 'э': "e", 'ё': "yo", 'ъ': "", '\'': "", '’': "", 'ʼ': "",
}

// Slugify transliterates a city name into a URL-safe path segment.
func Slugify(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	if s, ok := citySlugs[city]; ok {
		return s
	}

	var b strings.Builder
	for _, r := range city {
		if lat, ok := cyrillicToLatin[r]; ok {
			b.WriteString(lat)
			continue
		}
		b.WriteRune(r)
	}

	// Drop combining marks left in Latin input ("são" -> "sao").
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, b.String())
	if err != nil {
		plain = b.String()
	}

	var out strings.Builder
	dash := false
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_':
			if !dash && out.Len() > 0 {
				out.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(out.String(), "-")
}
