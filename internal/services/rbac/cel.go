package rbac

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/polisgate/polisgate/internal/entities"
)

// CELEngine evaluates expression conditions against an evaluation context.
type CELEngine struct {
	env *cel.Env
}

// NewCELEngine creates a CEL environment exposing the three variable
// namespaces expression conditions may reference.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("actor", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("resource", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &CELEngine{env: env}, nil
}

// Evaluate compiles and runs the expression against the context.
// The expression must produce a boolean.
func (e *CELEngine) Evaluate(expression string, ec *entities.EvaluationContext) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.Eval(celVariables(ec))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to boolean, got: %T", result.Value())
	}

	return boolResult, nil
}

// ValidateExpression compiles an expression without running it, checking
// that it produces a boolean. Used when registering permissions.
func (e *CELEngine) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid expression: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("expression must return boolean, got: %s", ast.OutputType())
	}
	return nil
}

// celVariables splits the flattened context into the actor/resource/request
// namespaces visible to expressions.
func celVariables(ec *entities.EvaluationContext) map[string]interface{} {
	m := ec.AsMap()

	actor := map[string]interface{}{"id": ec.ActorID}
	if agent, ok := m["agent"]; ok {
		actor["agent"] = agent
	}
	if regulatory, ok := m["regulatory"]; ok {
		actor["regulatory"] = regulatory
	}

	resource := map[string]interface{}{
		"id":       ec.ResourceID,
		"owner_id": ec.ResourceOwnerID,
	}
	if policy, ok := m["policy"]; ok {
		resource["policy"] = policy
	}
	if claim, ok := m["claim"]; ok {
		resource["claim"] = claim
	}

	request := map[string]interface{}{}
	for k, v := range ec.Attributes {
		request[k] = v
	}
	if !ec.RequestTime.IsZero() {
		request["time"] = ec.RequestTime
	}
	if ec.IPAddress != "" {
		request["ip"] = ec.IPAddress
	}
	if ec.UserAgent != "" {
		request["user_agent"] = ec.UserAgent
	}
	if ec.Amount != nil {
		request["amount"] = *ec.Amount
	}

	return map[string]interface{}{
		"actor":    actor,
		"resource": resource,
		"request":  request,
	}
}
