package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/autobrr/tbsync/pkg/magnet"
)

// evalContext is the environment filters see. Hash is already lowercased.
type evalContext struct {
	Hash    string
	Name    string
	HasName bool
}

func newEvalContext(rec magnet.Record) *evalContext {
	return &evalContext{
		Hash:    rec.Key(),
		Name:    rec.Name,
		HasName: rec.Name != "",
	}
}

func (e *evalContext) NameContains(substr string) bool {
	return strings.Contains(strings.ToLower(e.Name), strings.ToLower(substr))
}

// CheckSingleMatch reports whether any expression matches, and which one.
func CheckSingleMatch(rec magnet.Record, expressions []CompiledExpression) (bool, string, error) {
	env := newEvalContext(rec)

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		match, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("expression result is not a bool: %T", result)
		}

		if match {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}

// Filter decides which loaded records are handed to the importer.
type Filter struct {
	Include []CompiledExpression
	Exclude []CompiledExpression
}

func NewFilter(include []string, exclude []string) (*Filter, error) {
	inc, err := Compile(include)
	if err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}

	exc, err := Compile(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}

	return &Filter{Include: inc, Exclude: exc}, nil
}

// Allow returns false with a reason when rec is excluded, or when include
// expressions exist and none of them match.
func (f *Filter) Allow(rec magnet.Record) (bool, string, error) {
	if f == nil {
		return true, "", nil
	}

	excluded, reason, err := CheckSingleMatch(rec, f.Exclude)
	if err != nil {
		return false, "", err
	}
	if excluded {
		return false, reason, nil
	}

	if len(f.Include) == 0 {
		return true, "", nil
	}

	included, _, err := CheckSingleMatch(rec, f.Include)
	if err != nil {
		return false, "", err
	}
	if !included {
		return false, "no include expression matched", nil
	}

	return true, "", nil
}
