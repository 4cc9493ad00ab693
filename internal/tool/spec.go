package tool

import (
	"fmt"

	"github.com/ciforge/ciforge/internal/core"
)

// ParamType enumerates the value types a tool parameter may take.
type ParamType string

const (
	TypeString      ParamType = "string"
	TypeInt         ParamType = "int"
	TypeBool        ParamType = "bool"
	TypeStringSlice ParamType = "[]string"
)

// Param describes one parameter of a tool.
type Param struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
}

// Spec describes one registered tool. Immutable after registration.
type Spec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Request is one ephemeral tool invocation as received from a caller.
type Request struct {
	Tool      string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Args holds validated, defaulted arguments. Handlers only ever see Args
// that passed Spec validation.
type Args map[string]any

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case float64:
		// JSON numbers decode as float64.
		return int(v)
	}
	return 0
}

func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

func (a Args) StringSlice(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

// Validate checks the raw arguments against the spec: unknown parameters are
// rejected, required ones must be present, types must match. Defaults are
// applied for absent optional parameters.
func (s Spec) Validate(raw map[string]any) (Args, error) {
	byName := make(map[string]Param, len(s.Params))
	for _, p := range s.Params {
		byName[p.Name] = p
	}

	for name := range raw {
		if _, ok := byName[name]; !ok {
			return nil, core.NewError(core.ErrCodeSchemaInvalid, "tool %s: unknown parameter %q", s.Name, name)
		}
	}

	args := make(Args, len(s.Params))
	for _, p := range s.Params {
		v, present := raw[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, core.NewError(core.ErrCodeSchemaInvalid, "tool %s: missing required parameter %q", s.Name, p.Name)
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}
		coerced, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		args[p.Name] = coerced
	}
	return args, nil
}

func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case float64:
			if n == float64(int(n)) {
				return int(n), nil
			}
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeStringSlice:
		switch items := v.(type) {
		case []string:
			return items, nil
		case []any:
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, typeError(p, v)
				}
				out = append(out, s)
			}
			return out, nil
		}
	}
	return nil, typeError(p, v)
}

func typeError(p Param, v any) error {
	return core.NewError(core.ErrCodeSchemaInvalid,
		"parameter %q must be %s, got %s", p.Name, p.Type, fmt.Sprintf("%T", v))
}
