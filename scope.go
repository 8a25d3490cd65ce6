package cnls

import (
	"fmt"
	"strings"
)

// Variant identifies the kind of source construct a scope targets. It is a
// closed set: the Matcher switches over it exhaustively, so adding a variant
// is a compile-time change, not a runtime dispatch.
type Variant int

const (
	// VariantFnCall targets the string arguments of call expressions.
	VariantFnCall Variant = iota
	// VariantAttr targets JSX attribute values. Both the "att" and "prop"
	// scope tags map here; they name the same construct.
	VariantAttr
)

// String returns the canonical scope tag for the variant.
func (v Variant) String() string {
	switch v {
	case VariantFnCall:
		return "fn"
	case VariantAttr:
		return "att"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix // value*
	patternSuffix // *value
)

// Pattern matches a callee or attribute name: exact, prefix (value*), or
// suffix (*value). Matching is case-sensitive; there is no regex.
type Pattern struct {
	value string
	kind  patternKind
}

// parsePattern interprets a raw scope value. A single leading or trailing
// "*" marks suffix/prefix matching; a bare, doubled, or interior "*" is
// malformed.
func parsePattern(raw string) (Pattern, error) {
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty value")
	}

	prefix := strings.HasSuffix(raw, "*")
	suffix := strings.HasPrefix(raw, "*")
	if prefix && suffix {
		return Pattern{}, fmt.Errorf("value %q has wildcards on both ends", raw)
	}

	value := strings.TrimPrefix(strings.TrimSuffix(raw, "*"), "*")
	if value == "" {
		return Pattern{}, fmt.Errorf("value %q is only a wildcard", raw)
	}
	if strings.Contains(value, "*") {
		return Pattern{}, fmt.Errorf("value %q has an interior wildcard", raw)
	}

	switch {
	case prefix:
		return Pattern{value: value, kind: patternPrefix}, nil
	case suffix:
		return Pattern{value: value, kind: patternSuffix}, nil
	default:
		return Pattern{value: value, kind: patternExact}, nil
	}
}

// Match reports whether name satisfies the pattern.
func (p Pattern) Match(name string) bool {
	switch p.kind {
	case patternPrefix:
		return strings.HasPrefix(name, p.value)
	case patternSuffix:
		return strings.HasSuffix(name, p.value)
	default:
		return name == p.value
	}
}

// String renders the pattern back in scope-value form.
func (p Pattern) String() string {
	switch p.kind {
	case patternPrefix:
		return p.value + "*"
	case patternSuffix:
		return "*" + p.value
	default:
		return p.value
	}
}

// Scope is one configured matching rule: a variant plus the name patterns it
// accepts.
type Scope struct {
	Variant  Variant
	Patterns []Pattern
}

// ParseScope parses a single scope declaration "variant:value[,value...]".
func ParseScope(raw string) (Scope, error) {
	tag, rest, found := strings.Cut(raw, ":")
	if !found {
		return Scope{}, fmt.Errorf("missing %q separator", ":")
	}

	var variant Variant
	switch tag {
	case "fn":
		variant = VariantFnCall
	case "att", "prop":
		variant = VariantAttr
	default:
		return Scope{}, fmt.Errorf("unknown variant tag %q", tag)
	}

	var patterns []Pattern
	for _, value := range strings.Split(rest, ",") {
		p, err := parsePattern(strings.TrimSpace(value))
		if err != nil {
			return Scope{}, err
		}
		patterns = append(patterns, p)
	}
	return Scope{Variant: variant, Patterns: patterns}, nil
}

// Match returns the first pattern satisfied by name, in declaration order.
func (s Scope) Match(name string) (Pattern, bool) {
	for _, p := range s.Patterns {
		if p.Match(name) {
			return p, true
		}
	}
	return Pattern{}, false
}

// String renders the scope back in declaration form.
func (s Scope) String() string {
	values := make([]string, len(s.Patterns))
	for i, p := range s.Patterns {
		values[i] = p.String()
	}
	return s.Variant.String() + ":" + strings.Join(values, ",")
}

// ConfigError reports one rejected scope declaration, identifying the
// offending string and its position in the configured list.
type ConfigError struct {
	Raw   string // the scope string as given
	Index int    // position in the scope list
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scope %d %q: %s", e.Index, e.Raw, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config is an immutable set of scope rules. The Engine swaps the current
// Config atomically on reload; nothing mutates a Config after ParseConfig
// returns it.
type Config struct {
	Scopes []Scope
}

// DefaultConfig returns the configuration used when no scopes are set:
// attributes className and class, and calls to createElement.
func DefaultConfig() *Config {
	cfg, errs := ParseConfig([]string{"att:className,class", "fn:createElement"})
	if len(errs) > 0 {
		panic(fmt.Sprintf("cnls: default scopes failed to parse: %v", errs[0]))
	}
	return cfg
}

// ParseConfig parses a list of scope declarations. Declarations sharing a
// variant accumulate their patterns rather than overwriting each other. Every
// malformed declaration is reported as a ConfigError; when any error occurs
// the returned Config is nil and the caller should keep its previous
// configuration.
func ParseConfig(raws []string) (*Config, []*ConfigError) {
	var (
		errs   []*ConfigError
		scopes []Scope
		byVar  = map[Variant]int{} // variant → index in scopes
	)
	for i, raw := range raws {
		s, err := ParseScope(raw)
		if err != nil {
			errs = append(errs, &ConfigError{Raw: raw, Index: i, Err: err})
			continue
		}
		if at, ok := byVar[s.Variant]; ok {
			scopes[at].Patterns = append(scopes[at].Patterns, s.Patterns...)
			continue
		}
		byVar[s.Variant] = len(scopes)
		scopes = append(scopes, s)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &Config{Scopes: scopes}, nil
}

// Match finds the first scope of the given variant whose patterns accept
// name, returning the matched pattern's declaration form. A construct that
// would match several rules still matches exactly once.
func (c *Config) Match(variant Variant, name string) (string, bool) {
	for _, s := range c.Scopes {
		if s.Variant != variant {
			continue
		}
		if p, ok := s.Match(name); ok {
			return p.String(), true
		}
	}
	return "", false
}
