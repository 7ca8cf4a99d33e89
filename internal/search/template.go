package search

import (
	"regexp"
	"strconv"
	"strings"
)

// expandTemplate builds the replacement for one regex match. The template
// refers to groups as \0 through \9 or \g<n> / \g<name>; \n, \t and \r
// are control characters and \\ is a backslash. Groups that did not take
// part in the match expand to nothing.
func expandTemplate(re *regexp.Regexp, template, src string, loc []int) string {
	if !strings.Contains(template, `\`) {
		return template
	}

	group := func(n int) string {
		if n < 0 || 2*n+1 >= len(loc) || loc[2*n] < 0 {
			return ""
		}
		return src[loc[2*n]:loc[2*n+1]]
	}

	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '\\' || i+1 == len(template) {
			sb.WriteByte(c)
			continue
		}
		next := template[i+1]
		switch {
		case next >= '0' && next <= '9':
			sb.WriteString(group(int(next - '0')))
			i++
		case next == 'g' && i+2 < len(template) && template[i+2] == '<':
			end := strings.IndexByte(template[i+3:], '>')
			if end < 0 {
				sb.WriteByte(c)
				continue
			}
			name := template[i+3 : i+3+end]
			if n, err := strconv.Atoi(name); err == nil {
				sb.WriteString(group(n))
			} else if idx := re.SubexpIndex(name); idx >= 0 {
				sb.WriteString(group(idx))
			}
			i += 3 + end
		case next == 'n':
			sb.WriteByte('\n')
			i++
		case next == 't':
			sb.WriteByte('\t')
			i++
		case next == 'r':
			sb.WriteByte('\r')
			i++
		case next == '\\':
			sb.WriteByte('\\')
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
