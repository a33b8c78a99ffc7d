package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRender covers substitution, unknown placeholders and unbalanced braces.
func TestRender(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		"duration": "5 seconds",
		"label":    "",
		"time":     "{duration}",
	}

	cases := map[string]string{
		"Timer for {duration}.":       "Timer for 5 seconds.",
		"Timer{label} set.":           "Timer set.",
		"Keep {unknown} as is.":       "Keep {unknown} as is.",
		"{{duration}}":                "{5 seconds}",
		"At {time}":                   "At {duration}",
		"Open { brace":                "Open { brace",
		"":                            "",
		"{duration} and {duration}":   "5 seconds and 5 seconds",
		"no placeholders at all here": "no placeholders at all here",
	}

	for template, want := range cases {
		require.Equal(t, want, Render(template, values), template)
	}
}
