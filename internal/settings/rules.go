// Package settings holds the administrative tables of the ATS: job families
// with their test criteria, the CEO-trigger rule tables, the top-university
// allow-list and the job-role master.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operator is a comparison used by a CEO-trigger rule.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpIs           Operator = "is"
	OpIsNot        Operator = "is not"
)

// ParseOperator validates a raw operator string.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpIs, OpIsNot:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrInvalid, s)
}

// Value is a rule operand: numeric tables keep numbers, the others text.
type Value struct {
	Num     float64
	Text    string
	Numeric bool
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{Num: f, Numeric: true} }

// Text returns a text value.
func Text(s string) Value { return Value{Text: s} }

func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("rule value must be a number or a string: %w", err)
	}
	*v = Text(s)
	return nil
}

// UnmarshalYAML keeps unquoted YAML numbers numeric.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: rule value must be a scalar", n.Line)
	}
	switch n.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*v = Number(f)
	default:
		*v = Text(n.Value)
	}
	return nil
}

// Rule is one row of a CEO-trigger table.
type Rule struct {
	JobFamily string   `json:"jobFamily" yaml:"jobFamily"`
	Operator  Operator `json:"operator" yaml:"operator"`
	Value     Value    `json:"value" yaml:"value"`
}

// Matches reports whether the candidate attribute x satisfies the rule.
// Numeric rules compare x parsed as a number; unparsable input never
// matches. Text rules compare case-insensitively and only support is / is
// not.
func (r Rule) Matches(x string) bool {
	x = strings.TrimSpace(x)
	if r.Value.Numeric {
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return false
		}
		switch r.Operator {
		case OpGreater:
			return f > r.Value.Num
		case OpGreaterEqual:
			return f >= r.Value.Num
		case OpLess:
			return f < r.Value.Num
		case OpLessEqual:
			return f <= r.Value.Num
		case OpIs:
			return f == r.Value.Num
		case OpIsNot:
			return f != r.Value.Num
		}
		return false
	}

	eq := strings.EqualFold(x, strings.TrimSpace(r.Value.Text))
	switch r.Operator {
	case OpIs:
		return eq
	case OpIsNot:
		return !eq
	}
	return false
}

// Table names the CEO-trigger rule tables.
type Table string

const (
	TableAge           Table = "age"
	TableBand          Table = "band"
	TableTopUniversity Table = "top-university"
	TableGPA           Table = "gpa"
	TableAssessment    Table = "assessment"
)

// Tables lists every rule table in display order.
var Tables = []Table{TableAge, TableBand, TableTopUniversity, TableGPA, TableAssessment}

// ParseTable validates a raw table name.
func ParseTable(s string) (Table, error) {
	for _, t := range Tables {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown rule table %q", ErrInvalid, s)
}

// Field selects the part of a rule an update touches.
type Field string

const (
	FieldOperator Field = "operator"
	FieldValue    Field = "value"
)

// update returns r with field set from raw. A numeric value stays numeric.
func (r Rule) update(field Field, raw string) (Rule, error) {
	switch field {
	case FieldOperator:
		op, err := ParseOperator(raw)
		if err != nil {
			return r, err
		}
		r.Operator = op
	case FieldValue:
		if r.Value.Numeric {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return r, fmt.Errorf("%w: value must be a number, got %q", ErrInvalid, raw)
			}
			r.Value = Number(f)
		} else {
			r.Value = Text(raw)
		}
	default:
		return r, fmt.Errorf("%w: unknown rule field %q", ErrInvalid, field)
	}
	return r, nil
}
