package script

import (
	"fmt"
	"strings"
)

// ParseError is a single syntax error found while parsing a script.
// Errors are collected, not returned: the parser keeps going after most of
// them and the owning Asset counts them in ErrorCount.
type ParseError struct {
	// Script is the name of the script asset.
	Script string

	// Line is the 1-indexed line number where the error occurred.
	Line int

	// Message is the human-readable error description.
	Message string

	// Fatal is set for errors that stopped the parse.
	Fatal bool

	// Context contains the source lines around the error, the offending line
	// marked with '>'.
	Context string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Script != "" {
		return fmt.Sprintf("%s:%d: %s", e.Script, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// GenerateErrorContext renders the lines around an error location.
// It includes 2 lines before and 2 lines after the error line.
//
// Example output:
//
//	  2 | {
//	  3 | x = 5
//	> 4 | = 7
//	  5 | }
func GenerateErrorContext(lines []string, line int) string {
	if len(lines) == 0 || line <= 0 || line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	lineNumWidth := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		}
	}

	return buf.String()
}
