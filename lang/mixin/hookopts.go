package mixin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// hookOpts is the parsed form of a hook's `with(...)` option list.
type hookOpts struct {
	id         string
	priority   int
	depends    []string
	at         string
	strict     bool
	conflict   string // "error" (default), "prefer", or "drop"
	cancelable bool   // head only
	returnDep  string // tail only: "none" (default), "use_return", "replace_return"
	constArgs  []string
}

var hookOptionsByPoint = map[string]map[string]bool{
	"head":   {"id": true, "priority": true, "depends": true, "at": true, "strict": true, "conflict": true, "cancelable": true},
	"invoke": {"id": true, "priority": true, "depends": true, "at": true, "strict": true, "conflict": true},
	"tail":   {"id": true, "priority": true, "depends": true, "at": true, "strict": true, "conflict": true, "returnDep": true, "const": true, "constArgs": true},
}

// parseHookOptions validates and extracts a hook's with(...) options,
// rejecting any option key that does not apply to point (e.g. `cancelable`
// on a tail hook).
func parseHookOptions(opts []*ast.HookOption, point string) (hookOpts, error) {
	allowed := hookOptionsByPoint[point]
	var out hookOpts
	for _, o := range opts {
		name := o.Name.Name
		if !allowed[name] {
			return hookOpts{}, fmt.Errorf("option %q is not valid for a %s-point hook", name, point)
		}
		switch name {
		case "id":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.id = s
		case "priority":
			n, err := optionInt(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.priority = n
		case "depends":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.depends = splitCSV(s)
		case "at":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.at = s
		case "strict":
			b, err := optionBool(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.strict = b
		case "conflict":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.conflict = s
		case "cancelable":
			b, err := optionBool(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.cancelable = b
		case "returnDep":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.returnDep = s
		case "const", "constArgs":
			s, err := optionString(o.Value)
			if err != nil {
				return hookOpts{}, err
			}
			out.constArgs = append(out.constArgs, splitCSV(s)...)
		}
	}
	return out, nil
}

// optionString extracts the raw text of a hook option value: the decoded
// payload of a string/int/bool literal, or the bare name of an
// identifier-shaped value like `returnDep = use_return`. Most of this
// vocabulary (use_return, replace_return, drop, error) is not reserved at the lexer level, so
// it parses as a plain Ident rather than a literal; only reserved words
// need quoting to appear here, and `prefer` is one of them
// (`conflict = "prefer"`).
func optionString(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.LiteralExpr:
		switch v.Tok {
		case token.STRING:
			return v.Value.String, nil
		case token.INT:
			return strconv.FormatInt(v.Value.Int, 10), nil
		case token.BOOL:
			return v.Value.Raw, nil
		}
	case *ast.Ident:
		return v.Name, nil
	}
	return "", fmt.Errorf("unsupported hook option value")
}

func optionInt(e ast.Expr) (int, error) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok || lit.Tok != token.INT {
		return 0, fmt.Errorf("hook option expects an integer literal")
	}
	return int(lit.Value.Int), nil
}

func optionBool(e ast.Expr) (bool, error) {
	switch v := e.(type) {
	case *ast.LiteralExpr:
		if v.Tok == token.BOOL {
			return v.Value.Raw == "true", nil
		}
	case *ast.Ident:
		switch v.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("hook option expects a boolean value")
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
