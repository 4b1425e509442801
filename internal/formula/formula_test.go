package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]any) Env {
	return func(name string) (any, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func TestParseAndEval(t *testing.T) {
	values := map[string]any{
		"Price":    float64(25),
		"Quantity": float64(4),
		"Name":     "Widget",
		"Done":     true,
		"Empty":    nil,
	}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"number literal", "42", float64(42)},
		{"arithmetic", `prop("Price") * prop("Quantity")`, float64(100)},
		{"precedence", "2 + 3 * 4", float64(14)},
		{"parens", "(2 + 3) * 4", float64(20)},
		{"unary minus", `-prop("Price")`, float64(-25)},
		{"string concat plus", `prop("Name") + "!"`, "Widget!"},
		{"concat fn", `concat(prop("Name"), " x", "2")`, "Widget x2"},
		{"comparison", `prop("Price") >= 20`, true},
		{"equality", `prop("Name") == "Widget"`, true},
		{"bool ops", `prop("Done") and prop("Price") > 10`, true},
		{"not", `not prop("Done")`, false},
		{"if", `if(prop("Done"), "done", "open")`, "done"},
		{"nil coerces to zero", `prop("Empty") + 1`, float64(1)},
		{"string compare", `"abc" < "abd"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.expr)
			require.NoError(t, err)
			got, err := parsed.Eval(env(values))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	exprs := []string{
		"",
		"1 +",
		`prop(Name)`,
		`prop("Name"`,
		"1 = 2",
		"if(true, 1)",
		"unknownfn(1)",
		`"unterminated`,
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	values := map[string]any{"Name": "Widget", "Price": float64(1)}

	tests := []struct {
		name string
		expr string
	}{
		{"unknown property", `prop("Missing") + 1`},
		{"string times number", `prop("Name") * 2`},
		{"division by zero", `prop("Price") / 0`},
		{"non-bool condition", `if(prop("Name"), 1, 2)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.expr)
			require.NoError(t, err)
			_, err = parsed.Eval(env(values))
			assert.Error(t, err)
		})
	}
}

func TestRefs(t *testing.T) {
	parsed, err := Parse(`if(prop("Done"), prop("Price") * 2, prop("Price"))`)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Done", "Price"}, parsed.Refs())
}
