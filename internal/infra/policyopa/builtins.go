package policyopa

import "github.com/open-policy-agent/opa/ast"

// Access policies only inspect the method and path, so the capability set is
// restricted to pure string and membership builtins.
var allowedBuiltins = map[string]struct{}{
	"concat":            {},
	"endswith":          {},
	"eq":                {},
	"equal":             {},
	"internal.member_2": {},
	"lower":             {},
	"neq":               {},
	"regex.match":       {},
	"startswith":        {},
	"trim":              {},
	"upper":             {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
