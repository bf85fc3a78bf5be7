package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EnabledOption is the configuration key every policy recognises.
const EnabledOption = "enabled"

// Config option types accepted in a ConfigSchema.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"
)

// ConfigSchema describes the per-policy options a deployer may tune without
// editing the policy.
type ConfigSchema struct {
	Properties map[string]ConfigProperty `json:"properties"`
}

// ConfigProperty is a single recognised option.
type ConfigProperty struct {
	Type        string `json:"type"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Keys returns the option names declared by s in sorted order, always
// including EnabledOption.
func (s *ConfigSchema) Keys() []string {
	keys := []string{EnabledOption}
	if s != nil {
		for k := range s.Properties {
			if k != EnabledOption {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys[1:])
	return keys
}

// Defaults returns the declared default value of every option that has one.
func (s *ConfigSchema) Defaults() map[string]any {
	out := map[string]any{EnabledOption: true}
	if s == nil {
		return out
	}
	for k, p := range s.Properties {
		if p.Default != nil {
			out[k] = p.Default
		}
	}
	return out
}

// Lookup returns the declared property for key. EnabledOption is always found.
func (s *ConfigSchema) Lookup(key string) (ConfigProperty, bool) {
	if s != nil {
		if p, ok := s.Properties[key]; ok {
			return p, true
		}
	}
	if key == EnabledOption {
		return ConfigProperty{Type: TypeBoolean, Default: true}, true
	}
	return ConfigProperty{}, false
}

// validate checks that every property has a known type and a conforming default.
func (s *ConfigSchema) validate() error {
	if s == nil {
		return nil
	}
	for name, p := range s.Properties {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config schema: empty option name")
		}
		if name == EnabledOption && p.Type != TypeBoolean {
			return fmt.Errorf("config schema: option %q must be boolean", name)
		}
		if !knownType(p.Type) {
			return fmt.Errorf("config schema: option %q has unknown type %q", name, p.Type)
		}
		if p.Default != nil && !Conforms(p.Type, p.Default) {
			return fmt.Errorf("config schema: default of option %q is not a %s", name, p.Type)
		}
	}
	return nil
}

func knownType(t string) bool {
	switch t {
	case TypeBoolean, TypeInteger, TypeNumber, TypeString, TypeArray:
		return true
	}
	return false
}

// Conforms reports whether v is an acceptable value for an option of type typ.
// Numbers decoded from YAML or JSON arrive as int or float64; both are accepted
// for "number", and whole floats are accepted for "integer".
func Conforms(typ string, v any) bool {
	switch typ {
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		f, ok := toFloat(v)
		return ok && f == float64(int64(f))
	case TypeNumber:
		_, ok := toFloat(v)
		return ok
	case TypeArray:
		switch v.(type) {
		case []string, []any:
			return true
		}
	}
	return false
}

// ResolveArgs merges overrides on top of schema defaults and stamps now.
// Overrides for undeclared options are kept; Validate in the policy package
// reports them to the deployer.
func ResolveArgs(schema *ConfigSchema, overrides map[string]any, now time.Time) EvalArgs {
	cfg := schema.Defaults()
	for k, v := range overrides {
		cfg[k] = v
	}
	return EvalArgs{Config: cfg, Now: now}
}

// ShouldEvalPolicy reports whether a check with the given schema should run
// for args. It returns false only when the effective "enabled" option is
// false: an explicit override wins over the schema default, which wins over
// the implicit default of true.
func ShouldEvalPolicy(schema *ConfigSchema, args EvalArgs) bool {
	enabled := true
	if p, ok := schema.Lookup(EnabledOption); ok {
		if b, ok := p.Default.(bool); ok {
			enabled = b
		}
	}
	if v, ok := args.Config[EnabledOption]; ok {
		if b, ok := v.(bool); ok {
			enabled = b
		}
	}
	return enabled
}

// Bool returns the boolean option key, or def when unset or mistyped.
func (a EvalArgs) Bool(key string, def bool) bool {
	if b, ok := a.Config[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer option key, or def when unset or mistyped.
func (a EvalArgs) Int(key string, def int) int {
	if f, ok := toFloat(a.Config[key]); ok {
		return int(f)
	}
	return def
}

// Float returns the numeric option key, or def when unset or mistyped.
func (a EvalArgs) Float(key string, def float64) float64 {
	if f, ok := toFloat(a.Config[key]); ok {
		return f
	}
	return def
}

// String returns the string option key, or def when unset or mistyped.
func (a EvalArgs) String(key, def string) string {
	if s, ok := a.Config[key].(string); ok {
		return s
	}
	return def
}

// Strings returns the list option key. A comma-separated string is split.
func (a EvalArgs) Strings(key string, def []string) []string {
	switch v := a.Config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return def
}

// Time returns the evaluation timestamp, falling back to the wall clock when
// the host did not set one.
func (a EvalArgs) Time() time.Time {
	if a.Now.IsZero() {
		return time.Now().UTC()
	}
	return a.Now
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
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
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
