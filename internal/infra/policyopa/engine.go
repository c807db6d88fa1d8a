package policyopa

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"eventbooking/internal/domain"
	"eventbooking/internal/infra/auth/access"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.booking.access.requirement"

//go:embed policy/access.rego
var defaultModule string

// Engine evaluates the access rule table written in rego. It satisfies
// access.Evaluator and yields the same matches as access.DefaultRules.
type Engine struct {
	query    rego.PreparedEvalQuery
	fallback domain.Requirement
}

var _ access.Evaluator = (*Engine)(nil)

func NewEngine(ctx context.Context, fallback domain.Requirement) (*Engine, error) {
	return NewEngineFromModule(ctx, "access.rego", defaultModule, fallback)
}

func NewEngineFromModule(ctx context.Context, name, module string, fallback domain.Requirement) (*Engine, error) {
	if strings.TrimSpace(module) == "" {
		return nil, errors.New("policy module is empty")
	}
	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	r := rego.New(
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		rego.Module(name, module),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare access policy: %w", err)
	}
	return &Engine{query: prepared, fallback: fallback}, nil
}

func (e *Engine) Evaluate(ctx context.Context, method, requestPath string) (domain.AccessMatch, error) {
	if e == nil {
		return domain.AccessMatch{}, errors.New("policy engine is nil")
	}
	input := map[string]any{
		"method": strings.ToUpper(method),
		"path":   access.CleanPath(requestPath),
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.AccessMatch{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.AccessMatch{Rule: access.DefaultRuleName, Requirement: e.fallback}, nil
	}
	return decodeMatch(results[0].Expressions[0].Value)
}

func decodeMatch(value any) (domain.AccessMatch, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return domain.AccessMatch{}, fmt.Errorf("unexpected policy result %T", value)
	}
	rule, _ := obj["rule"].(string)
	kind, _ := obj["kind"].(string)
	if rule == "" || kind == "" {
		return domain.AccessMatch{}, errors.New("policy result missing rule or kind")
	}
	match := domain.AccessMatch{
		Rule:        rule,
		Requirement: domain.Requirement{Kind: domain.RequirementKind(kind)},
	}
	switch match.Requirement.Kind {
	case domain.RequirePublic, domain.RequireAuthenticated:
	case domain.RequireRole:
		raw, _ := obj["role"].(string)
		role, ok := domain.ParseRole(raw)
		if !ok {
			return domain.AccessMatch{}, fmt.Errorf("policy rule %s names unknown role %q", rule, raw)
		}
		match.Requirement.Role = role
	default:
		return domain.AccessMatch{}, fmt.Errorf("policy rule %s has unknown kind %q", rule, kind)
	}
	return match, nil
}
