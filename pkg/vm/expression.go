package vm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zurustar/textgame/pkg/script"
)

// EvaluateExpression evaluates the right-hand side of an assignment or an
// unquoted call argument.
//
// Supported forms are quoted strings, integers, floats, true/false and
// identifiers resolved through scope. Anything else (arithmetic included) is
// an INVALID_OPERATION error.
func EvaluateExpression(expr string, scope *Scope) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, NewRuntimeError(ErrorInvalidOperation, "empty expression")
	}

	if len(expr) >= 2 && expr[0] == '"' && expr[len(expr)-1] == '"' {
		return expr[1 : len(expr)-1], nil
	}

	switch expr {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if isNumberStart(expr[0]) {
		if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(expr, 64); err == nil {
			return f, nil
		}
		return nil, NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("invalid number %q", expr))
	}

	if isIdentifier(expr) {
		if scope != nil {
			if value, ok := scope.Get(expr); ok {
				return value, nil
			}
		}
		return nil, NewUndefinedVariableError(expr)
	}

	return nil, NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("unsupported expression %q", expr))
}

// EvaluateCondition evaluates the body of an if statement.
// A body without an operator is tested for truthiness.
func EvaluateCondition(body string, scope *Scope) (bool, error) {
	cond, err := script.ParseCondition(body)
	if err != nil {
		return false, NewRuntimeError(ErrorInvalidOperation, err.Error())
	}

	lhs, err := EvaluateExpression(cond.LHS, scope)
	if err != nil {
		return false, err
	}
	if cond.Operator == script.ConditionNone {
		return toBool(lhs), nil
	}

	rhs, err := EvaluateExpression(cond.RHS, scope)
	if err != nil {
		return false, err
	}
	return compare(cond.Operator, lhs, rhs)
}

func compare(op script.ConditionType, lhs, rhs any) (bool, error) {
	if isNumeric(lhs) && isNumeric(rhs) {
		if li, ok := lhs.(int64); ok {
			if ri, ok := rhs.(int64); ok {
				return compareOrdered(op, li, ri), nil
			}
		}
		lf, _ := toFloat64(lhs)
		rf, _ := toFloat64(rhs)
		return compareOrdered(op, lf, rf), nil
	}

	if ls, ok := lhs.(string); ok {
		if rs, ok := rhs.(string); ok {
			return compareOrdered(op, ls, rs), nil
		}
	}

	if lb, ok := lhs.(bool); ok {
		if rb, ok := rhs.(bool); ok {
			switch op {
			case script.ConditionEquals:
				return lb == rb, nil
			case script.ConditionNotEquals:
				return lb != rb, nil
			}
		}
	}

	return false, NewRuntimeError(ErrorInvalidOperation,
		fmt.Sprintf("cannot compare %s %s %s", typeName(lhs), op, typeName(rhs)))
}

func compareOrdered[T int64 | float64 | string](op script.ConditionType, l, r T) bool {
	switch op {
	case script.ConditionEquals:
		return l == r
	case script.ConditionNotEquals:
		return l != r
	case script.ConditionLess:
		return l < r
	case script.ConditionGreater:
		return l > r
	case script.ConditionLessOrEqual:
		return l <= r
	case script.ConditionGreaterOrEqual:
		return l >= r
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// toInt64 converts a numeric value to int64. Floats are truncated.
func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// toString converts a value to its script representation.
func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// toBool reports the truthiness of a value.
func toBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		f, ok := toFloat64(v)
		return ok && f != 0
	}
}

func isNumeric(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}
