package script

import "testing"

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input string
		want  Condition
	}{
		{"x == 5", Condition{LHS: "x", Operator: ConditionEquals, RHS: "5"}},
		{"x != 5", Condition{LHS: "x", Operator: ConditionNotEquals, RHS: "5"}},
		{"x < 5", Condition{LHS: "x", Operator: ConditionLess, RHS: "5"}},
		{"x > 5", Condition{LHS: "x", Operator: ConditionGreater, RHS: "5"}},
		{"x <= 5", Condition{LHS: "x", Operator: ConditionLessOrEqual, RHS: "5"}},
		{"x >= 5", Condition{LHS: "x", Operator: ConditionGreaterOrEqual, RHS: "5"}},
		{"a>=b", Condition{LHS: "a", Operator: ConditionGreaterOrEqual, RHS: "b"}},
		{`name == "a == b"`, Condition{LHS: "name", Operator: ConditionEquals, RHS: `"a == b"`}},
		{"ready", Condition{LHS: "ready", Operator: ConditionNone}},
	}

	for _, tt := range tests {
		got, err := ParseCondition(tt.input)
		if err != nil {
			t.Errorf("ParseCondition(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCondition(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestParseCondition_Errors(t *testing.T) {
	inputs := []string{"", "   ", "== 5", "x ==", "x === 5", "x <> 5"}
	for _, input := range inputs {
		if _, err := ParseCondition(input); err == nil {
			t.Errorf("ParseCondition(%q) expected error", input)
		}
	}
}

func TestConditionTypeString(t *testing.T) {
	if ConditionLessOrEqual.String() != "<=" {
		t.Errorf("unexpected operator: %q", ConditionLessOrEqual.String())
	}
	if ConditionType(99).String() != "?" {
		t.Errorf("unexpected operator for invalid type: %q", ConditionType(99).String())
	}
}
