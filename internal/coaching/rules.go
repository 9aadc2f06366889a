// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package coaching evaluates the coaching rules attached to drill configs
// against the answers of a checkin.
package coaching

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator. The set is closed; conditions never execute code.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// Longer symbols first so "<=" is not read as "<".
var symbolOps = []struct {
	sym string
	op  Op
}{
	{"==", OpEq},
	{"!=", OpNe},
	{"<=", OpLte},
	{">=", OpGte},
	{"<", OpLt},
	{">", OpGt},
}

var ErrBadCondition = errors.New("invalid coaching condition")

// ParseOp accepts both the symbolic and the named form of an operator.
func ParseOp(s string) (Op, error) {
	s = strings.TrimSpace(s)
	for _, so := range symbolOps {
		if s == so.sym || s == string(so.op) {
			return so.op, nil
		}
	}
	switch s {
	case "le":
		return OpLte, nil
	case "ge":
		return OpGte, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrBadCondition, s)
}

// Operand is either a string or a number.
type Operand struct {
	Str     string
	Num     float64
	Numeric bool
}

func (o Operand) String() string {
	if o.Numeric {
		return strconv.FormatFloat(o.Num, 'f', -1, 64)
	}
	return o.Str
}

// Condition compares one answer against a literal.
type Condition struct {
	Key   string
	Op    Op
	Value Operand
}

// ParseCondition parses the legacy textual form `key <op> value`. Quoted
// values are strings; bare values are numbers when they parse as one.
func ParseCondition(s string) (Condition, error) {
	for _, so := range symbolOps {
		idx := strings.Index(s, so.sym)
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(s[:idx])
		raw := strings.TrimSpace(s[idx+len(so.sym):])
		if key == "" || raw == "" {
			return Condition{}, fmt.Errorf("%w: %q", ErrBadCondition, s)
		}
		return Condition{Key: key, Op: so.op, Value: literal(raw)}, nil
	}
	return Condition{}, fmt.Errorf("%w: no operator in %q", ErrBadCondition, s)
}

func literal(raw string) Operand {
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		return Operand{Str: raw[1 : len(raw)-1]}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Operand{Num: f, Numeric: true}
	}
	return Operand{Str: raw}
}

func operandFromJSON(v any) (Operand, error) {
	switch x := v.(type) {
	case string:
		return Operand{Str: x}, nil
	case float64:
		return Operand{Num: x, Numeric: true}, nil
	case bool:
		return Operand{Str: strconv.FormatBool(x)}, nil
	default:
		return Operand{}, fmt.Errorf("%w: unsupported value %v", ErrBadCondition, v)
	}
}

// Match reports whether answers satisfy c. Ordering comparisons need a
// numeric literal; a missing answer counts as 0 for them.
func (c Condition) Match(answers map[string]any) bool {
	answer, present := answers[c.Key]
	switch c.Op {
	case OpEq, OpNe:
		eq := present && equal(answer, c.Value)
		if c.Op == OpEq {
			return eq
		}
		return !eq
	}

	if !c.Value.Numeric {
		return false
	}
	n := 0.0
	if present {
		var ok bool
		if n, ok = number(answer); !ok {
			return false
		}
	}
	switch c.Op {
	case OpLt:
		return n < c.Value.Num
	case OpLte:
		return n <= c.Value.Num
	case OpGt:
		return n > c.Value.Num
	case OpGte:
		return n >= c.Value.Num
	}
	return false
}

func equal(answer any, v Operand) bool {
	if v.Numeric {
		n, ok := number(answer)
		return ok && n == v.Num
	}
	switch a := answer.(type) {
	case string:
		return a == v.Str
	case bool:
		return strconv.FormatBool(a) == v.Str
	}
	return false
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// Rule pairs a condition with the coaching text shown when it matches.
type Rule struct {
	Condition Condition
	Feedback  string
	NextTask  string
}

type structuredCondition struct {
	Key   string `json:"key"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type ruleDoc struct {
	Condition json.RawMessage `json:"condition"`
	When      json.RawMessage `json:"when"`
	Feedback  string          `json:"feedback"`
	NextTask  string          `json:"next_task"`
}

func parseConditionJSON(raw json.RawMessage) (Condition, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ParseCondition(text)
	}
	var sc structuredCondition
	if err := json.Unmarshal(raw, &sc); err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrBadCondition, err)
	}
	if sc.Key == "" {
		return Condition{}, fmt.Errorf("%w: missing key", ErrBadCondition)
	}
	op, err := ParseOp(sc.Op)
	if err != nil {
		return Condition{}, err
	}
	v, err := operandFromJSON(sc.Value)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Key: sc.Key, Op: op, Value: v}, nil
}

// ParseRules extracts coaching_rules from a drill config. A config without
// rules yields none.
func ParseRules(config json.RawMessage) ([]Rule, error) {
	if len(config) == 0 {
		return nil, nil
	}
	var doc struct {
		Rules []ruleDoc `json:"coaching_rules"`
	}
	if err := json.Unmarshal(config, &doc); err != nil {
		return nil, fmt.Errorf("decode coaching rules: %w", err)
	}
	rules := make([]Rule, 0, len(doc.Rules))
	for i, rd := range doc.Rules {
		raw := rd.Condition
		if len(raw) == 0 || string(raw) == "null" {
			raw = rd.When
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil, fmt.Errorf("rule %d: %w: missing condition", i, ErrBadCondition)
		}
		cond, err := parseConditionJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, Rule{Condition: cond, Feedback: rd.Feedback, NextTask: rd.NextTask})
	}
	return rules, nil
}
