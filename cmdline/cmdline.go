// Package cmdline parses the launcher command line and connect URIs.
package cmdline

import (
	"slices"
	"strings"
)

type Options map[string]string

func (o Options) Get(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}

func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

type token struct {
	text  string
	start int
}

// tokenize splits on spaces outside double quotes. A token wrapped in quotes
// loses them.
func tokenize(line string) []token {
	var tokens []token
	for i := 0; i < len(line); {
		if line[i] == ' ' {
			i++
			continue
		}
		start := i
		quoted := false
		for ; i < len(line); i++ {
			c := line[i]
			if c == '"' {
				quoted = !quoted
			} else if c == ' ' && !quoted {
				break
			}
		}
		text := line[start:i]
		if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
			text = text[1 : len(text)-1]
		}
		tokens = append(tokens, token{text, start})
	}
	return tokens
}

// Parse reads leading "-key [value]" pairs from line. Keys listed in noValue
// take no value. A key listed in tail takes the next token as its value and
// that token also starts the returned free text. Otherwise the free text is
// everything from the first token that is neither a key nor a value, with
// its original spacing.
func Parse(line string, noValue, tail []string) (Options, string) {
	opts := make(Options)
	var key string
	for _, tok := range tokenize(line) {
		if key == "" {
			if !strings.HasPrefix(tok.text, "-") || len(tok.text) == 1 {
				return opts, line[tok.start:]
			}
			key = tok.text[1:]
			if slices.Contains(noValue, key) {
				opts[key] = ""
				key = ""
			}
			continue
		}
		opts[key] = tok.text
		if slices.Contains(tail, key) {
			return opts, line[tok.start:]
		}
		key = ""
	}
	if key != "" {
		opts[key] = ""
	}
	return opts, ""
}
