package script

import (
	"fmt"
	"strings"
)

// keywordFunction may not be used as an argument name.
const keywordFunction = "function"

// parseDeclarationArguments splits a function header's argument list.
// Empty names and the function keyword are rejected; every rejection is
// reported through report and the remaining names are still collected.
func parseDeclarationArguments(list string, report func(msg string)) []string {
	args := []string{}
	if strings.TrimSpace(list) == "" {
		return args
	}

	for i, token := range strings.Split(list, ",") {
		name := strings.TrimSpace(token)
		switch {
		case name == "":
			report(fmt.Sprintf("empty argument name at position %d", i+1))
		case name == keywordFunction:
			report(fmt.Sprintf("argument %d uses reserved word %q as a name", i+1, keywordFunction))
		default:
			args = append(args, name)
		}
	}

	return args
}

// parseCallArguments splits a call's argument list.
// Unlike declarations, a quoted string may contain commas: segments are
// joined back together until the closing quote is seen.
func parseCallArguments(list string, report func(msg string)) []Argument {
	args := []Argument{}
	if strings.TrimSpace(list) == "" {
		return args
	}

	var (
		quoted  strings.Builder
		inQuote bool
	)

	for _, segment := range strings.Split(list, ",") {
		if inQuote {
			quoted.WriteString(",")
			quoted.WriteString(segment)
			trimmed := strings.TrimRight(segment, " ")
			if strings.HasSuffix(trimmed, `"`) {
				inQuote = false
				args = append(args, closeQuoted(quoted.String()))
				quoted.Reset()
			}
			continue
		}

		token := strings.TrimSpace(segment)
		switch {
		case token == "":
			report(fmt.Sprintf("empty argument at position %d", len(args)+1))
		case strings.HasPrefix(token, `"`):
			if len(token) > 1 && strings.HasSuffix(token, `"`) {
				args = append(args, closeQuoted(token))
				continue
			}
			inQuote = true
			quoted.WriteString(strings.TrimLeft(segment, " "))
		case token == keywordFunction:
			report(fmt.Sprintf("argument %d uses reserved word %q", len(args)+1, keywordFunction))
		default:
			args = append(args, Argument{Value: token})
		}
	}

	if inQuote {
		report("unterminated string literal in argument list")
	}

	return args
}

// closeQuoted strips surrounding whitespace and the outer quotes.
func closeQuoted(s string) Argument {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return Argument{Value: s, Quoted: true}
}
