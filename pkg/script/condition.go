package script

import (
	"fmt"
	"strings"
)

// ConditionType is the comparison operator of a condition.
type ConditionType int

const (
	ConditionNone ConditionType = iota // bare operand, tested for truthiness
	ConditionEquals
	ConditionNotEquals
	ConditionLess
	ConditionGreater
	ConditionLessOrEqual
	ConditionGreaterOrEqual
)

var conditionOperators = [...]string{
	ConditionNone:           "",
	ConditionEquals:         "==",
	ConditionNotEquals:      "!=",
	ConditionLess:           "<",
	ConditionGreater:        ">",
	ConditionLessOrEqual:    "<=",
	ConditionGreaterOrEqual: ">=",
}

func (c ConditionType) String() string {
	if c < 0 || int(c) >= len(conditionOperators) {
		return "?"
	}
	return conditionOperators[c]
}

// Condition is a condition body split into operands and operator.
type Condition struct {
	LHS      string
	Operator ConditionType
	RHS      string
}

// two-character operators must be tried before their one-character prefixes.
var operatorSearchOrder = []ConditionType{
	ConditionEquals,
	ConditionNotEquals,
	ConditionLessOrEqual,
	ConditionGreaterOrEqual,
	ConditionLess,
	ConditionGreater,
}

// ParseCondition decomposes a condition body such as `x >= 10`.
// The parser itself never calls this: ConditionStart keeps the raw body and
// decomposition happens when a condition is evaluated.
func ParseCondition(body string) (Condition, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Condition{}, fmt.Errorf("empty condition")
	}

	pos, op := -1, ConditionNone
	inQuote := false
	for i := 0; i < len(body) && pos < 0; i++ {
		if body[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		for _, candidate := range operatorSearchOrder {
			if strings.HasPrefix(body[i:], candidate.String()) {
				pos, op = i, candidate
				break
			}
		}
	}

	if pos < 0 {
		return Condition{LHS: body, Operator: ConditionNone}, nil
	}

	lhs := strings.TrimSpace(body[:pos])
	rhs := strings.TrimSpace(body[pos+len(op.String()):])
	if lhs == "" || rhs == "" {
		return Condition{}, fmt.Errorf("malformed condition %q: missing operand", body)
	}
	if strings.ContainsAny(rhs[:1], "=<>!") {
		return Condition{}, fmt.Errorf("malformed condition %q: unknown operator", body)
	}

	return Condition{LHS: lhs, Operator: op, RHS: rhs}, nil
}
