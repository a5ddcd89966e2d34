package rbac

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/entities"
)

// ConditionEvaluator evaluates a permission's declarative conditions
// against an evaluation context. A condition list is a logical AND: every
// condition must pass for the permission to contribute to a grant.
//
// Missing field paths fail every operator except not_in, which treats
// absence as non-membership. Unknown operators fail closed.
type ConditionEvaluator struct {
	cel    *CELEngine
	logger *logrus.Logger
}

// NewConditionEvaluator creates a condition evaluator. The CEL engine is
// optional; without it, expression conditions fail closed.
func NewConditionEvaluator(cel *CELEngine, logger *logrus.Logger) *ConditionEvaluator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ConditionEvaluator{cel: cel, logger: logger}
}

// EvaluateAll reports whether every condition passes.
func (e *ConditionEvaluator) EvaluateAll(conditions []*entities.Condition, ec *entities.EvaluationContext) bool {
	for _, c := range conditions {
		if !e.Evaluate(c, ec) {
			return false
		}
	}
	return true
}

// Evaluate reports whether a single condition passes.
func (e *ConditionEvaluator) Evaluate(condition *entities.Condition, ec *entities.EvaluationContext) bool {
	if condition.Operator == entities.OperatorExpression {
		return e.evaluateExpression(condition, ec)
	}

	value, found := ec.Resolve(condition.Field)

	switch condition.Operator {
	case entities.OperatorEquals:
		return found && equals(value, condition.Value)
	case entities.OperatorContains:
		return found && strings.Contains(toString(value), toString(condition.Value))
	case entities.OperatorGreaterThan:
		return found && numericCompare(value, condition.Value, func(a, b float64) bool { return a > b })
	case entities.OperatorLessThan:
		return found && numericCompare(value, condition.Value, func(a, b float64) bool { return a < b })
	case entities.OperatorIn:
		return found && contains(condition.Value, value)
	case entities.OperatorNotIn:
		// Absence satisfies not_in: an undefined field is trivially not a
		// member of the collection.
		if !found {
			return true
		}
		return !contains(condition.Value, value)
	default:
		e.logger.WithFields(logrus.Fields{
			"operator": condition.Operator,
			"field":    condition.Field,
		}).Warn("unknown condition operator, failing closed")
		return false
	}
}

func (e *ConditionEvaluator) evaluateExpression(condition *entities.Condition, ec *entities.EvaluationContext) bool {
	expr, ok := condition.Value.(string)
	if !ok || expr == "" {
		return false
	}
	if e.cel == nil {
		e.logger.Warn("expression condition without CEL engine, failing closed")
		return false
	}
	result, err := e.cel.Evaluate(expr, ec)
	if err != nil {
		e.logger.WithError(err).WithField("expression", expr).Warn("expression condition failed to evaluate")
		return false
	}
	return result
}

// equals performs strict equality, with the one concession that numeric
// operands of different Go types compare by value (JSON decoding produces
// float64 while contexts may carry ints).
func equals(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// numericCompare coerces both operands to float64 and applies cmp.
// Non-coercible operands and NaN comparisons are always false.
func numericCompare(a, b interface{}, cmp func(a, b float64) bool) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok || math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}
	return cmp(af, bf)
}

// contains tests membership of needle in collection. The collection must
// be an ordered list; anything else fails the test.
func contains(collection, needle interface{}) bool {
	items, ok := asSlice(collection)
	if !ok {
		return false
	}
	for _, item := range items {
		if equals(needle, item) {
			return true
		}
	}
	return false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case []interface{}:
		return s, true
	case []string:
		out := make([]interface{}, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []int:
		out := make([]interface{}, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
