package search

import "strings"

// UnescapeSearchText turns \n, \r, \t and \\ into the characters they name,
// so a multi-line literal search can be typed into a one-line entry. Other
// backslash sequences are kept as typed. Use it only with regex disabled;
// a regular expression handles escapes itself.
func UnescapeSearchText(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 == len(text) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch text[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(text[i])
		}
	}
	return sb.String()
}

// EscapeSearchText is the inverse of UnescapeSearchText, for showing a
// multi-line search text in a one-line entry.
func EscapeSearchText(text string) string {
	return searchTextEscaper.Replace(text)
}

var searchTextEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)
