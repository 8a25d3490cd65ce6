package cnls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope_Variants(t *testing.T) {
	tests := []struct {
		raw     string
		variant Variant
		values  []string
	}{
		{"fn:cva", VariantFnCall, []string{"cva"}},
		{"att:className,class", VariantAttr, []string{"className", "class"}},
		{"prop:className", VariantAttr, []string{"className"}},
		{"att:*ClassName,cls*", VariantAttr, []string{"*ClassName", "cls*"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := ParseScope(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, s.Variant)
			require.Len(t, s.Patterns, len(tt.values))
			for i, v := range tt.values {
				assert.Equal(t, v, s.Patterns[i].String())
			}
		})
	}
}

func TestParseScope_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",                // no separator
		"className",       // no separator
		"attr:className",  // unknown tag
		"fn:",             // empty value
		"att:className,",  // empty trailing value
		"fn:*",            // bare wildcard
		"fn:*cva*",        // wildcards on both ends
		"fn:c*va",         // interior wildcard
		"fn:**",           // doubled wildcard
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseScope(raw)
			assert.Error(t, err)
		})
	}
}

func TestPattern_WildcardSemantics(t *testing.T) {
	suffix, err := parsePattern("*ClassName")
	require.NoError(t, err)
	assert.True(t, suffix.Match("iconClassName"))
	assert.True(t, suffix.Match("textClassName"))
	assert.False(t, suffix.Match("className"), "matching is case-sensitive")

	exact, err := parsePattern("className")
	require.NoError(t, err)
	assert.True(t, exact.Match("className"))
	assert.False(t, exact.Match("iconClassName"))

	prefix, err := parsePattern("cls*")
	require.NoError(t, err)
	assert.True(t, prefix.Match("clsx"))
	assert.False(t, prefix.Match("myClsx"))
}

func TestParseConfig_AccumulatesSameVariant(t *testing.T) {
	cfg, errs := ParseConfig([]string{"att:className", "fn:cva", "att:class"})
	require.Empty(t, errs)
	require.Len(t, cfg.Scopes, 2)

	rule, ok := cfg.Match(VariantAttr, "class")
	require.True(t, ok)
	assert.Equal(t, "class", rule)

	_, ok = cfg.Match(VariantFnCall, "class")
	assert.False(t, ok, "variants do not bleed into each other")
}

func TestParseConfig_ReportsOffendingString(t *testing.T) {
	cfg, errs := ParseConfig([]string{"att:className", "bogus:x", "fn:*"})
	assert.Nil(t, cfg)
	require.Len(t, errs, 2)

	assert.Equal(t, "bogus:x", errs[0].Raw)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, "fn:*", errs[1].Raw)
	assert.Equal(t, 2, errs[1].Index)
	assert.Contains(t, errs[0].Error(), "bogus:x")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	for name, want := range map[string]bool{
		"className":     true,
		"class":         true,
		"textClassName": false,
	} {
		_, ok := cfg.Match(VariantAttr, name)
		assert.Equal(t, want, ok, "attr %q", name)
	}

	_, ok := cfg.Match(VariantFnCall, "createElement")
	assert.True(t, ok)
	_, ok = cfg.Match(VariantFnCall, "cva")
	assert.False(t, ok)
}

// Parsing a scope and re-parsing its String form must produce an equivalent
// rule set.
func TestScope_RoundTrip(t *testing.T) {
	for _, raw := range []string{
		"fn:cva,cx,clsx*",
		"att:className,class,*ClassName",
		"prop:cls*",
	} {
		s, err := ParseScope(raw)
		require.NoError(t, err)

		again, err := ParseScope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, again, "round-trip of %q via %q", raw, s.String())
	}
}

func TestConfig_FirstMatchWins(t *testing.T) {
	cfg, errs := ParseConfig([]string{"att:class*,*Name"})
	require.Empty(t, errs)

	// className matches both patterns; the first declared wins and the
	// construct is matched exactly once.
	rule, ok := cfg.Match(VariantAttr, "className")
	require.True(t, ok)
	assert.Equal(t, "class*", rule)
}
