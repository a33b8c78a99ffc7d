package tools

import "strings"

// Render substitutes {name} placeholders with values[name].
// Placeholders without an entry in values are left verbatim, and
// substituted text is never scanned again.
func Render(template string, values map[string]string) string {
	var (
		b    strings.Builder
		rest = template
	)

	b.Grow(len(template))

	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}

		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}

		end += open + 1
		name := rest[open+1 : end]

		value, ok := values[name]
		if !ok || strings.ContainsRune(name, '{') {
			// Emit the brace and rescan from the next byte so that "{{label}" still finds "{label}".
			b.WriteString(rest[:open+1])
			rest = rest[open+1:]

			continue
		}

		b.WriteString(rest[:open])
		b.WriteString(value)
		rest = rest[end+1:]
	}

	return b.String()
}
