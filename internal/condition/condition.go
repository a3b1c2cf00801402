// Package condition provides prerequisite conditions for actions and event
// templates. A condition is a small tagged variant: either a numeric
// comparison against a named variable, or a boolean flag lookup, evaluated by
// a pure interpreter. Unresolvable or malformed conditions evaluate to false,
// never to an error: a bad prerequisite excludes its action, it does not stall
// the tick.
package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator.
type Op uint8

const (
	OpGE Op = iota // variable >= threshold
	OpGT           // variable >  threshold
	OpLT           // variable <  threshold
)

func (o Op) String() string {
	switch o {
	case OpGE:
		return ">="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	default:
		return "?"
	}
}

// Kind discriminates the condition variants.
type Kind uint8

const (
	KindComparison Kind = iota
	KindFlag
)

// Condition is one prerequisite. Comparison conditions resolve Variable
// through the Env; flag conditions look Flag up as a boolean.
type Condition struct {
	Kind      Kind
	Variable  string
	Op        Op
	Threshold float64
	Flag      string
}

// GE builds a "variable >= threshold" condition.
func GE(variable string, threshold float64) Condition {
	return Condition{Kind: KindComparison, Variable: variable, Op: OpGE, Threshold: threshold}
}

// GT builds a "variable > threshold" condition.
func GT(variable string, threshold float64) Condition {
	return Condition{Kind: KindComparison, Variable: variable, Op: OpGT, Threshold: threshold}
}

// LT builds a "variable < threshold" condition.
func LT(variable string, threshold float64) Condition {
	return Condition{Kind: KindComparison, Variable: variable, Op: OpLT, Threshold: threshold}
}

// Flag builds a boolean flag condition.
func Flag(name string) Condition {
	return Condition{Kind: KindFlag, Flag: name}
}

// Env resolves names during evaluation. Value covers character state fields,
// aggregate world metrics, and personality traits; FlagSet covers situational
// booleans. The second return reports whether the name resolved at all.
type Env interface {
	Value(name string) (float64, bool)
	FlagSet(name string) (bool, bool)
}

// Eval interprets the condition against env. Anything that cannot be resolved
// (unknown variable, unknown flag, unknown operator) is false.
func (c Condition) Eval(env Env) bool {
	switch c.Kind {
	case KindComparison:
		v, ok := env.Value(c.Variable)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGE:
			return v >= c.Threshold
		case OpGT:
			return v > c.Threshold
		case OpLT:
			return v < c.Threshold
		}
		return false
	case KindFlag:
		v, ok := env.FlagSet(c.Flag)
		return ok && v
	default:
		return false
	}
}

// All reports whether every condition in the list holds. An empty list holds.
func All(conds []Condition, env Env) bool {
	for _, c := range conds {
		if !c.Eval(env) {
			return false
		}
	}
	return true
}

// Parse converts a textual prerequisite ("energy < 30", "free_time") into a
// Condition. Used when loading catalogs from config files; the evaluator
// itself never touches strings.
func Parse(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Condition{}, fmt.Errorf("empty condition")
	}

	// Order matters: ">=" must be tried before ">".
	for _, probe := range []struct {
		sep string
		op  Op
	}{
		{">=", OpGE},
		{">", OpGT},
		{"<", OpLT},
	} {
		if i := strings.Index(s, probe.sep); i >= 0 {
			variable := strings.TrimSpace(s[:i])
			raw := strings.TrimSpace(s[i+len(probe.sep):])
			threshold, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Condition{}, fmt.Errorf("condition %q: bad threshold: %w", s, err)
			}
			if variable == "" {
				return Condition{}, fmt.Errorf("condition %q: missing variable", s)
			}
			return Condition{Kind: KindComparison, Variable: variable, Op: probe.op, Threshold: threshold}, nil
		}
	}

	// No operator: a bare flag name.
	if strings.ContainsAny(s, " \t") {
		return Condition{}, fmt.Errorf("condition %q: not a comparison or flag", s)
	}
	return Condition{Kind: KindFlag, Flag: s}, nil
}

func (c Condition) String() string {
	if c.Kind == KindFlag {
		return c.Flag
	}
	return fmt.Sprintf("%s %s %g", c.Variable, c.Op, c.Threshold)
}
