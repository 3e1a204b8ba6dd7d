package policy

import (
	"context"
	"fmt"

	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/utils"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// DefaultRule lets only the owner of a car touch it.
const DefaultRule = "resource.owner == auth.uid"

// CELPolicy evaluates one compiled CEL rule for every access check.
type CELPolicy struct {
	expression string
	program    cel.Program
}

func createCELEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Declarations(
			decls.NewVar("auth", decls.Dyn),
			decls.NewVar("resource", decls.Dyn),
		),
	)
}

// NewCELPolicy compiles expression. An empty expression uses DefaultRule.
func NewCELPolicy(expression string) (*CELPolicy, error) {
	if expression == "" {
		expression = DefaultRule
	}
	env, err := createCELEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	return &CELPolicy{expression: expression, program: program}, nil
}

// Expression returns the rule source.
func (p *CELPolicy) Expression() string {
	return p.expression
}

// Authorize returns nil when the rule evaluates to true. A false result, a
// non-boolean result and an evaluation error all deny.
func (p *CELPolicy) Authorize(ctx context.Context, subjectID string, car *model.Car) error {
	if car == nil {
		return apperrors.ErrForbidden
	}

	var auth interface{}
	if subjectID != "" {
		authMap := map[string]interface{}{"uid": subjectID}
		if email, err := utils.GetUserEmailFromContext(ctx); err == nil && email != "" {
			authMap["token"] = map[string]interface{}{"email": email}
		}
		auth = authMap
	}

	vars := map[string]interface{}{
		"auth": auth,
		"resource": map[string]interface{}{
			"id":    car.ID,
			"owner": car.Owner,
			"title": car.Title,
			"tags": map[string]interface{}{
				"car_type": car.Tags.CarType,
				"company":  car.Tags.Company,
				"dealer":   car.Tags.Dealer,
			},
		},
	}

	out, _, err := p.program.Eval(vars)
	if err != nil {
		return fmt.Errorf("%w: CEL evaluation error: %v", apperrors.ErrForbidden, err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return fmt.Errorf("%w: CEL expression did not return boolean value", apperrors.ErrForbidden)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

var _ repository.AccessPolicy = (*CELPolicy)(nil)
