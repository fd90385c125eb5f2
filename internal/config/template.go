package config

import (
	"regexp"
	"strings"

	"github.com/oshokin/release-kit/internal/domain/release"
)

// placeholderPattern matches escaped braces and {key} placeholders.
var placeholderPattern = regexp.MustCompile(`\{\{|\}\}|\{([^{}]*)\}`)

// Render substitutes {key} placeholders in tmpl from values.
// "{{" and "}}" produce literal braces. An unknown key or an unmatched
// brace fails with a StageError.
func Render(tmpl string, values map[string]string) (string, error) {
	var (
		builder strings.Builder
		last    int
	)

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		if err := writeLiteral(&builder, tmpl, tmpl[last:loc[0]]); err != nil {
			return "", err
		}

		last = loc[1]

		switch match := tmpl[loc[0]:loc[1]]; match {
		case "{{":
			builder.WriteByte('{')
		case "}}":
			builder.WriteByte('}')
		default:
			key := tmpl[loc[2]:loc[3]]

			value, ok := values[key]
			if !ok {
				return "", release.NewStageError("", nil, "invalid template key '%s' in '%s'", key, tmpl)
			}

			builder.WriteString(value)
		}
	}

	if err := writeLiteral(&builder, tmpl, tmpl[last:]); err != nil {
		return "", err
	}

	return builder.String(), nil
}

// writeLiteral copies text between placeholders, which may not hold a lone brace.
func writeLiteral(builder *strings.Builder, tmpl, text string) error {
	if i := strings.IndexAny(text, "{}"); i >= 0 {
		return release.NewStageError("", nil, "unmatched '%c' in template '%s'", text[i], tmpl)
	}

	builder.WriteString(text)

	return nil
}
