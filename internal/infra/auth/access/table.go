package access

import (
	"context"
	"fmt"
	"path"
	"strings"

	"eventbooking/internal/domain"

	"github.com/gobwas/glob"
)

// DefaultRuleName labels decisions made by the fallback requirement.
const DefaultRuleName = "default"

// Evaluator finds the requirement governing a request.
type Evaluator interface {
	Evaluate(ctx context.Context, method, requestPath string) (domain.AccessMatch, error)
}

// Rule matches when the method is listed (or Methods is empty) and any
// pattern matches the cleaned path. Patterns are globs with '/' as the
// separator: '*' stays within one segment, '**' spans segments.
type Rule struct {
	Name        string
	Methods     []string
	Patterns    []string
	Requirement domain.Requirement
}

// DefaultRules is the booking API's rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "static-assets",
			Patterns: []string{
				"/static/**", "/css/**", "/js/**", "/images/**", "/webjars/**", "/favicon.*",
				"/", "/index.html", "/app.js", "/admin.js", "/admin.html", "/my_tickets.js", "/styles.css",
			},
			Requirement: domain.Public(),
		},
		{
			Name:        "auth-endpoints",
			Patterns:    []string{"/api/auth", "/api/auth/**", "/auth", "/auth/**"},
			Requirement: domain.Public(),
		},
		{
			Name:        "public-event-reads",
			Methods:     []string{"GET"},
			Patterns:    []string{"/api/events", "/api/events/**"},
			Requirement: domain.Public(),
		},
		{
			Name:        "event-management",
			Methods:     []string{"POST", "DELETE"},
			Patterns:    []string{"/api/events", "/api/events/**"},
			Requirement: domain.HasRole(domain.RoleAdmin),
		},
		{
			Name:        "admin-namespace",
			Patterns:    []string{"/api/admin", "/api/admin/**"},
			Requirement: domain.HasRole(domain.RoleAdmin),
		},
		{
			Name:        "api-namespace",
			Patterns:    []string{"/api", "/api/**"},
			Requirement: domain.Authenticated(),
		},
	}
}

type compiledRule struct {
	name        string
	methods     map[string]struct{}
	globs       []glob.Glob
	requirement domain.Requirement
}

// Table evaluates rules in order; the first match wins.
type Table struct {
	rules    []compiledRule
	fallback domain.Requirement
}

func NewTable(rules []Rule, fallback domain.Requirement) (*Table, error) {
	if err := validateRequirement(fallback); err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("rule %d has no name", len(compiled))
		}
		if len(rule.Patterns) == 0 {
			return nil, fmt.Errorf("rule %s has no patterns", rule.Name)
		}
		if err := validateRequirement(rule.Requirement); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		cr := compiledRule{name: rule.Name, requirement: rule.Requirement}
		if len(rule.Methods) > 0 {
			cr.methods = make(map[string]struct{}, len(rule.Methods))
			for _, m := range rule.Methods {
				cr.methods[strings.ToUpper(m)] = struct{}{}
			}
		}
		for _, pattern := range rule.Patterns {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("rule %s pattern %q: %w", rule.Name, pattern, err)
			}
			cr.globs = append(cr.globs, g)
		}
		compiled = append(compiled, cr)
	}
	return &Table{rules: compiled, fallback: fallback}, nil
}

func (t *Table) Evaluate(_ context.Context, method, requestPath string) (domain.AccessMatch, error) {
	method = strings.ToUpper(method)
	p := CleanPath(requestPath)
	for _, rule := range t.rules {
		if rule.matches(method, p) {
			return domain.AccessMatch{Rule: rule.name, Requirement: rule.requirement}, nil
		}
	}
	return domain.AccessMatch{Rule: DefaultRuleName, Requirement: t.fallback}, nil
}

func (r compiledRule) matches(method, p string) bool {
	if r.methods != nil {
		if _, ok := r.methods[method]; !ok {
			return false
		}
	}
	for _, g := range r.globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// CleanPath normalises a request path so that dot segments and duplicate
// slashes cannot route around a rule.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func validateRequirement(req domain.Requirement) error {
	switch req.Kind {
	case domain.RequirePublic, domain.RequireAuthenticated:
		return nil
	case domain.RequireRole:
		if _, ok := domain.ParseRole(string(req.Role)); !ok {
			return fmt.Errorf("unknown role %q", req.Role)
		}
		return nil
	default:
		return fmt.Errorf("unknown requirement kind %q", req.Kind)
	}
}

// FallbackFor maps the ACCESS_DEFAULT setting onto a requirement.
func FallbackFor(setting string) (domain.Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", "public":
		return domain.Public(), nil
	case "authenticated":
		return domain.Authenticated(), nil
	default:
		return domain.Requirement{}, fmt.Errorf("unsupported access default %q", setting)
	}
}
