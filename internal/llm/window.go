package llm

import "strings"

// contextWindows lists known context sizes, matched by longest model prefix.
var contextWindows = map[string]int{
	"gpt-3.5-turbo-instruct": 4096,
	"gpt-3.5-turbo":          16385,
	"gpt-4o":                 128000,
	"gpt-4o-mini":            128000,
	"gpt-4.1":                1047576,
	"gpt-4-turbo":            128000,
	"gpt-4-32k":              32768,
	"gpt-4":                  8192,
	"davinci-002":            16384,
	"babbage-002":            16384,
}

// ContextWindow returns the context size of model, consulting overrides first.
// It returns 0 when the model is unknown.
func ContextWindow(model string, overrides map[string]int) int {
	if n, ok := overrides[model]; ok {
		return n
	}
	best, size := "", 0
	for prefix, n := range contextWindows {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best, size = prefix, n
		}
	}
	return size
}
