package policy

// GetParam returns the configured value of option key for the named policy.
// It is safe to call with cfg == nil.
//
// Lookup order:
//  1. cfg == nil → not found
//  2. cfg.Policies[name] absent → not found
//  3. cfg.Policies[name].Params[key] absent → not found
//  4. Otherwise → configured value
func GetParam(name, key string, cfg *PolicyConfig) (any, bool) {
	if cfg == nil {
		return nil, false
	}
	ov, ok := cfg.Policies[name]
	if !ok {
		return nil, false
	}
	v, ok := ov.Params[key]
	return v, ok
}

// overrides returns the deployer-supplied options for the named policy,
// including "enabled" when set. The result is a fresh map.
func overrides(name string, cfg *PolicyConfig) map[string]any {
	out := map[string]any{}
	if cfg == nil {
		return out
	}
	ov, ok := cfg.Policies[name]
	if !ok {
		return out
	}
	for k := range ov.Params {
		if v, ok := GetParam(name, k, cfg); ok {
			out[k] = v
		}
	}
	if ov.Enabled != nil {
		out["enabled"] = *ov.Enabled
	}
	return out
}
