package script

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zurustar/textgame/pkg/logger"
)

// EntryFunction is the function a script starts executing from.
const EntryFunction = "main"

// Asset is a script asset: its name, the parsed Program and the error
// bookkeeping of the parse.
//
// ErrorCount is the single source of truth for whether the script loaded:
// any value above zero means the script must not be registered.
type Asset struct {
	Name       string
	Program    *Program
	ErrorCount int
	Errors     []*ParseError

	// Includes lists #include paths in file order. They are recorded only;
	// included files are not parsed.
	Includes []string

	log *slog.Logger
}

// Option configures an Asset.
type Option func(*Asset)

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Asset) {
		a.log = l
	}
}

// NewAsset creates an empty script asset.
func NewAsset(name string, opts ...Option) *Asset {
	a := &Asset{
		Name:    name,
		Program: NewProgram(),
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Parse creates an asset and parses data into it.
func Parse(name string, data []byte, opts ...Option) *Asset {
	a := NewAsset(name, opts...)
	a.ParseData(data)
	return a
}

// OK reports whether the script parsed without errors.
func (a *Asset) OK() bool {
	return a.ErrorCount == 0
}

// ParseData parses a raw script buffer into a new Program.
// The buffer does not need to be terminated; it is read as a whole.
// Errors are counted in ErrorCount and the parse continues, except for the
// structural errors marked Fatal which end the parse at that line.
func (a *Asset) ParseData(data []byte) {
	p := &parser{
		asset:   a,
		program: NewProgram(),
		lines:   strings.Split(normalize(string(data)), "\n"),
		log:     logger.WithTag(a.log, "ScriptAsset.ParseData"),
	}
	a.Program = p.program

	p.run()

	p.log.Debug(fmt.Sprintf("Found %d functions.", p.program.Len()),
		"script", a.Name,
		"errors", a.ErrorCount,
		"has_main", p.program.Functions[EntryFunction] != nil)
}

// normalize removes tabs and collapses repeated spaces.
// This is applied to the whole buffer, quoted text included.
func normalize(src string) string {
	src = strings.ReplaceAll(src, "\t", "")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	for strings.Contains(src, "  ") {
		src = strings.ReplaceAll(src, "  ", " ")
	}
	return src
}

// parserState is the per-call mode of the parser.
type parserState struct {
	inFunction     bool // a header was seen and its body is not closed yet
	inFunctionBody bool
	conditionDepth int
	current        *FunctionDefinition
}

type parser struct {
	asset   *Asset
	program *Program
	lines   []string
	state   parserState
	log     *slog.Logger
}

// run walks the lines once. It returns early on fatal errors.
func (p *parser) run() {
	for i, raw := range p.lines {
		lineNo := i + 1
		line := strings.TrimLeft(raw, " ")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "//"):
			continue

		case strings.HasPrefix(line, "#include"):
			if !p.parseInclude(line, lineNo) {
				return
			}

		case hasKeyword(line, "function"):
			if !p.parseFunctionHeader(line, lineNo) {
				return
			}

		case strings.HasPrefix(line, "{"):
			p.state.inFunctionBody = true

		case strings.HasPrefix(line, "}") && p.state.inFunctionBody:
			p.closeFunction(lineNo)

		case isCall(line):
			p.parseCall(line, lineNo)

		case hasKeyword(line, "if"):
			p.parseCondition(line, lineNo)

		case hasKeyword(line, "endif"):
			p.parseEndif(lineNo)

		case strings.Contains(line, "="):
			p.parseAssignment(line, lineNo)

		default:
			p.errorf(lineNo, false, "unknown token %q", firstWord(line))
		}
	}

	if p.state.inFunctionBody && p.state.current != nil {
		p.errorf(len(p.lines), false, "unterminated body of function %q", p.state.current.Name)
	} else if p.state.inFunction && p.state.current != nil {
		p.errorf(len(p.lines), false, "function %q has no body", p.state.current.Name)
	}
}

func (p *parser) parseInclude(line string, lineNo int) bool {
	if p.state.inFunctionBody {
		p.errorf(lineNo, true, "#include is not allowed inside a function body")
		return false
	}

	path := ""
	if open := strings.IndexByte(line, '"'); open >= 0 {
		if end := strings.IndexByte(line[open+1:], '"'); end >= 0 {
			path = strings.TrimSpace(line[open+1 : open+1+end])
		}
	}
	if path == "" {
		p.errorf(lineNo, true, "empty #include path")
		return false
	}

	p.asset.Includes = append(p.asset.Includes, path)
	p.log.Debug("Include directive recorded, not processed", "script", p.asset.Name, "path", path)
	return true
}

func (p *parser) parseFunctionHeader(line string, lineNo int) bool {
	if p.state.inFunctionBody {
		p.errorf(lineNo, true, "unexpected function keyword inside function body")
		return false
	}

	open := strings.IndexByte(line, '(')
	closing := -1
	if open >= 0 {
		if idx := strings.IndexByte(line[open:], ')'); idx >= 0 {
			closing = open + idx
		}
	}
	if open < 0 || closing < 0 {
		p.errorf(lineNo, true, "malformed function definition")
		return false
	}

	name := strings.TrimSpace(line[len("function"):open])
	if name == "" || strings.Contains(name, " ") {
		p.errorf(lineNo, true, "malformed function definition: invalid name %q", name)
		return false
	}

	if p.state.inFunction && p.state.current != nil {
		p.errorf(lineNo, false, "function %q has no body", p.state.current.Name)
	}

	fn := &FunctionDefinition{
		Name:        name,
		Variables:   []VariableDefinition{},
		ControlFlow: []Statement{},
		Line:        lineNo,
	}
	fn.Arguments = parseDeclarationArguments(line[open+1:closing], func(msg string) {
		p.errorf(lineNo, false, "function %q: %s", name, msg)
	})

	if _, exists := p.program.Functions[name]; exists {
		// the duplicate is parsed into a detached definition and dropped
		p.errorf(lineNo, false, "duplicate definition of function %q", name)
	} else {
		p.program.add(fn)
	}

	p.state.current = fn
	p.state.inFunction = true
	p.state.conditionDepth = 0
	return true
}

func (p *parser) closeFunction(lineNo int) {
	if p.state.conditionDepth > 0 && p.state.current != nil {
		p.errorf(lineNo, false, "unterminated condition block in function %q", p.state.current.Name)
	}
	p.state = parserState{}
}

func (p *parser) parseCall(line string, lineNo int) {
	if !p.requireBody(lineNo) {
		return
	}

	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	callee := strings.ReplaceAll(line[:open], " ", "")
	if callee == "" {
		p.errorf(lineNo, false, "function call without a name")
		return
	}
	if closing < open {
		p.errorf(lineNo, false, "malformed call to %q", callee)
		return
	}

	args := parseCallArguments(line[open+1:closing], func(msg string) {
		p.errorf(lineNo, false, "call to %q: %s", callee, msg)
	})

	p.emit(CallStatement{Callee: callee, Arguments: args, Line: lineNo})
}

func (p *parser) parseCondition(line string, lineNo int) {
	if !p.requireBody(lineNo) {
		return
	}

	open := strings.LastIndexByte(line, '(')
	closing := -1
	if open >= 0 {
		if idx := strings.IndexByte(line[open:], ')'); idx >= 0 {
			closing = open + idx
		}
	}
	if open < 0 || closing < 0 {
		p.errorf(lineNo, false, "malformed condition")
		return
	}

	body := strings.TrimSpace(line[open+1 : closing])
	if body == "" {
		p.errorf(lineNo, false, "empty condition body")
	}

	p.emit(ConditionStart{Body: body, Line: lineNo})
	p.state.conditionDepth++
}

func (p *parser) parseEndif(lineNo int) {
	if p.state.conditionDepth == 0 || !p.state.inFunctionBody {
		p.errorf(lineNo, false, "endif without a matching if")
		return
	}
	if !p.requireBody(lineNo) {
		return
	}

	p.emit(ConditionEnd{Line: lineNo})
	p.state.conditionDepth--
}

func (p *parser) parseAssignment(line string, lineNo int) {
	if !p.requireBody(lineNo) {
		return
	}

	eq := strings.IndexByte(line, '=')
	name := strings.TrimSpace(line[:eq])
	value := strings.TrimSpace(line[eq+1:])
	if name == "" || value == "" {
		p.errorf(lineNo, false, "malformed variable syntax")
		return
	}

	fn := p.state.current
	fn.Variables = append(fn.Variables, VariableDefinition{Name: name, Value: value})
	p.emit(AssignmentStatement{VariableIndex: len(fn.Variables) - 1, Line: lineNo})
}

func (p *parser) requireBody(lineNo int) bool {
	if !p.state.inFunctionBody || p.state.current == nil {
		p.errorf(lineNo, false, "statement outside function body")
		return false
	}
	return true
}

func (p *parser) emit(stmt Statement) {
	p.state.current.ControlFlow = append(p.state.current.ControlFlow, stmt)
}

func (p *parser) errorf(lineNo int, fatal bool, format string, args ...any) {
	err := &ParseError{
		Script:  p.asset.Name,
		Line:    lineNo,
		Message: fmt.Sprintf(format, args...),
		Fatal:   fatal,
		Context: GenerateErrorContext(p.lines, lineNo),
	}
	p.asset.ErrorCount++
	p.asset.Errors = append(p.asset.Errors, err)
	p.log.Debug("Syntax parse error", "script", p.asset.Name, "line", lineNo, "fatal", fatal, "error", err.Message)
}

// hasKeyword reports whether line starts with keyword as a whole word.
func hasKeyword(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	rest := line[len(keyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '('
}

// isCall is the call heuristic: not an if, no '=', has both parentheses.
func isCall(line string) bool {
	return !hasKeyword(line, "if") &&
		!strings.Contains(line, "=") &&
		strings.Contains(line, "(") &&
		strings.Contains(line, ")")
}

func firstWord(line string) string {
	if idx := strings.IndexAny(line, " ("); idx > 0 {
		return line[:idx]
	}
	return line
}
