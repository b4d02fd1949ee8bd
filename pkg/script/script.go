// Package script parses the line-oriented scripting language used by scenes.
//
// A script is a sequence of function definitions. Each function body is a
// flat control-flow log of assignments, calls and condition markers; no
// expression tree is built, right-hand sides and condition bodies are kept
// as text and evaluated later by an executor.
package script

// Program maps function names to their definitions.
// It is populated by a single parse and treated as read-only afterwards.
type Program struct {
	Functions map[string]*FunctionDefinition
	order     []string
}

// NewProgram creates an empty Program.
func NewProgram() *Program {
	return &Program{
		Functions: make(map[string]*FunctionDefinition),
	}
}

// Function looks up a function by name.
func (p *Program) Function(name string) (*FunctionDefinition, bool) {
	if p == nil {
		return nil, false
	}
	fn, ok := p.Functions[name]
	return fn, ok
}

// Len returns the number of defined functions.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Functions)
}

// Names returns function names in declaration order.
func (p *Program) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

func (p *Program) add(fn *FunctionDefinition) {
	p.Functions[fn.Name] = fn
	p.order = append(p.order, fn.Name)
}

// FunctionDefinition is a parsed function.
type FunctionDefinition struct {
	Name        string
	Arguments   []string
	Variables   []VariableDefinition
	ControlFlow []Statement
	Line        int // line of the function header
}

// Variable returns the variable an AssignmentStatement refers to.
func (f *FunctionDefinition) Variable(stmt AssignmentStatement) (VariableDefinition, bool) {
	if stmt.VariableIndex < 0 || stmt.VariableIndex >= len(f.Variables) {
		return VariableDefinition{}, false
	}
	return f.Variables[stmt.VariableIndex], true
}

// VariableDefinition is a single assignment as written in the source.
// Value is the unevaluated right-hand side.
type VariableDefinition struct {
	Name  string
	Value string
}

// StatementKind identifies the variant of a Statement.
type StatementKind int

const (
	KindAssignment StatementKind = iota + 1
	KindFunctionCall
	KindConditionStart
	KindConditionEnd
)

var statementKindNames = [...]string{
	KindAssignment:     "VARIABLE_ASSIGNMENT",
	KindFunctionCall:   "FUNCTION_CALL",
	KindConditionStart: "CONDITION_START",
	KindConditionEnd:   "CONDITION_END",
}

func (k StatementKind) String() string {
	if k <= 0 || int(k) >= len(statementKindNames) {
		return "UNKNOWN"
	}
	return statementKindNames[k]
}

// Statement is one entry of a function's control flow.
// The set of implementations is closed: AssignmentStatement, CallStatement,
// ConditionStart and ConditionEnd.
type Statement interface {
	Kind() StatementKind
	SourceLine() int
	statement()
}

// AssignmentStatement assigns FunctionDefinition.Variables[VariableIndex].
type AssignmentStatement struct {
	VariableIndex int
	Line          int
}

// CallStatement invokes Callee with the given arguments.
// The callee is not resolved at parse time.
type CallStatement struct {
	Callee    string
	Arguments []Argument
	Line      int
}

// ConditionStart opens a conditional block. Body is the raw condition text.
type ConditionStart struct {
	Body string
	Line int
}

// ConditionEnd closes the innermost open ConditionStart.
type ConditionEnd struct {
	Line int
}

func (AssignmentStatement) Kind() StatementKind { return KindAssignment }
func (CallStatement) Kind() StatementKind       { return KindFunctionCall }
func (ConditionStart) Kind() StatementKind      { return KindConditionStart }
func (ConditionEnd) Kind() StatementKind        { return KindConditionEnd }

func (s AssignmentStatement) SourceLine() int { return s.Line }
func (s CallStatement) SourceLine() int       { return s.Line }
func (s ConditionStart) SourceLine() int      { return s.Line }
func (s ConditionEnd) SourceLine() int        { return s.Line }

func (AssignmentStatement) statement() {}
func (CallStatement) statement()       {}
func (ConditionStart) statement()      {}
func (ConditionEnd) statement()        {}

// Argument is a call argument. Quoted literals are stored without quotes.
type Argument struct {
	Value  string
	Quoted bool
}

func (a Argument) String() string {
	if a.Quoted {
		return `"` + a.Value + `"`
	}
	return a.Value
}

// MatchingEnd returns the index of the ConditionEnd closing the
// ConditionStart at index start, or -1 if there is none.
func MatchingEnd(flow []Statement, start int) int {
	depth := 0
	for i := start; i < len(flow); i++ {
		switch flow[i].(type) {
		case ConditionStart:
			depth++
		case ConditionEnd:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
