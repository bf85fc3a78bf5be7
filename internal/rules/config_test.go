package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

func TestShouldEvalPolicy(t *testing.T) {
	disabledByDefault := &ConfigSchema{Properties: map[string]ConfigProperty{
		EnabledOption: {Type: TypeBoolean, Default: false},
	}}

	tests := []struct {
		name   string
		schema *ConfigSchema
		config map[string]any
		want   bool
	}{
		{"nil schema, nil config", nil, nil, true},
		{"nil schema, empty config", nil, map[string]any{}, true},
		{"explicit false", nil, map[string]any{"enabled": false}, false},
		{"explicit true", nil, map[string]any{"enabled": true}, true},
		{"unrelated keys only", nil, map[string]any{"max_age_days": 30}, true},
		{"mistyped enabled ignored", nil, map[string]any{"enabled": "no"}, true},
		{"schema default false", disabledByDefault, nil, false},
		{"override beats schema default", disabledByDefault, map[string]any{"enabled": true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldEvalPolicy(tt.schema, EvalArgs{Config: tt.config})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveArgs_OverridesWinOverDefaults(t *testing.T) {
	schema := &ConfigSchema{Properties: map[string]ConfigProperty{
		"max_age_days": {Type: TypeInteger, Default: 90},
		"required":     {Type: TypeArray, Default: []string{"owner"}},
	}}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	args := ResolveArgs(schema, map[string]any{"max_age_days": 30}, now)

	assert.Equal(t, 30, args.Int("max_age_days", 0))
	assert.Equal(t, []string{"owner"}, args.Strings("required", nil))
	assert.True(t, args.Bool(EnabledOption, false))
	assert.Equal(t, now, args.Time())
}

func TestResolveArgs_DoesNotMutateSchema(t *testing.T) {
	schema := &ConfigSchema{Properties: map[string]ConfigProperty{
		"days": {Type: TypeInteger, Default: 7},
	}}

	_ = ResolveArgs(schema, map[string]any{"days": 1}, time.Time{})

	assert.Equal(t, 7, schema.Properties["days"].Default)
}

func TestConfigSchema_Keys(t *testing.T) {
	var nilSchema *ConfigSchema
	assert.Equal(t, []string{"enabled"}, nilSchema.Keys())

	s := &ConfigSchema{Properties: map[string]ConfigProperty{
		"zeta":  {Type: TypeString},
		"alpha": {Type: TypeString},
	}}
	assert.Equal(t, []string{"enabled", "alpha", "zeta"}, s.Keys())
}

func TestConforms(t *testing.T) {
	assert.True(t, Conforms(TypeInteger, 3))
	assert.True(t, Conforms(TypeInteger, float64(3)))
	assert.False(t, Conforms(TypeInteger, 3.5))
	assert.True(t, Conforms(TypeNumber, 3.5))
	assert.True(t, Conforms(TypeArray, []any{"a"}))
	assert.False(t, Conforms(TypeArray, "a"))
	assert.False(t, Conforms(TypeBoolean, "true"))
	assert.False(t, Conforms("map", map[string]any{}))
}

func TestEvalArgs_Strings(t *testing.T) {
	args := EvalArgs{Config: map[string]any{
		"list":  []any{"a", 1, "b"},
		"csv":   "owner, team ,,env",
		"typed": []string{"x"},
	}}

	assert.Equal(t, []string{"a", "b"}, args.Strings("list", nil))
	assert.Equal(t, []string{"owner", "team", "env"}, args.Strings("csv", nil))
	assert.Equal(t, []string{"x"}, args.Strings("typed", nil))
	assert.Equal(t, []string{"d"}, args.Strings("missing", []string{"d"}))
}

func TestEvalArgs_TimeFallsBackToClock(t *testing.T) {
	before := time.Now().UTC()
	got := EvalArgs{}.Time()
	assert.False(t, got.Before(before))
}

func TestValidateResourceOfType_Dispatch(t *testing.T) {
	type widget struct{ Open bool }
	check := ValidateResourceOfType(models.KindAWSS3Bucket, func(w widget, _ EvalArgs, report ReportFunc) {
		if w.Open {
			report("widget is open")
		}
	})

	var got []string
	report := func(msg string) { got = append(got, msg) }

	check.Validate(widget{Open: true}, EvalArgs{}, report)
	check.Validate(&widget{Open: true}, EvalArgs{}, report)
	check.Validate((*widget)(nil), EvalArgs{}, report)
	check.Validate("not a widget", EvalArgs{}, report)
	check.Validate(nil, EvalArgs{}, report)
	check.Validate(widget{}, EvalArgs{}, report)

	assert.Equal(t, []string{"widget is open", "widget is open"}, got)
	assert.Equal(t, models.KindAWSS3Bucket, check.Kind())
}

func TestRecord_ShouldEval(t *testing.T) {
	rec := Record{Metadata: Metadata{Name: "p"}, Check: awsCheck("")}

	assert.True(t, rec.ShouldEval(EvalArgs{}))
	assert.False(t, rec.ShouldEval(EvalArgs{Config: map[string]any{"enabled": false}}))
}
