// Package units parses component value text such as "4.7k", "10 kΩ" or "9V"
// into plain numbers.
//
// A value is a decimal mantissa, an optional SI prefix from a fixed table and
// an optional unit symbol. Parsing is total: every input yields either a
// number or a *ValueParseError.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ValueLexer tokenizes value text. Unit symbols are listed before prefixes so
// that "m" only ever lexes as a prefix.
var ValueLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Unit", Pattern: `(?i)ohms?\b|Ω|V|A`},
	{Name: "Prefix", Pattern: `[pnuµmkKMG]`},
})

// Expr is the parsed form of a value.
type Expr struct {
	Mantissa string `@Number`
	Prefix   string `@Prefix?`
	Unit     string `@Unit?`
}

// Prefixes maps each accepted SI prefix to its multiplier.
var Prefixes = map[string]float64{
	"p": 1e-12,
	"n": 1e-9,
	"u": 1e-6,
	"µ": 1e-6,
	"m": 1e-3,
	"k": 1e3,
	"K": 1e3,
	"M": 1e6,
	"G": 1e9,
}

// ErrEmpty is returned for blank value text.
var ErrEmpty = errors.New("units: empty value")

// ValueParseError reports text that is not a valid value. The caller's
// previously stored value is never touched by a failed parse.
type ValueParseError struct {
	Text string
	Err  error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("units: invalid value %q: %v", e.Text, e.Err)
}

func (e *ValueParseError) Unwrap() error { return e.Err }

var valueParser = participle.MustBuild[Expr](
	participle.Lexer(ValueLexer),
	participle.Elide("Whitespace"),
)

// Parse converts value text to a number in base units.
func Parse(text string) (float64, error) {
	n, _, err := ParseUnit(text)
	return n, err
}

// ParseUnit is Parse that also returns the unit symbol written after the
// number, normalized to "Ω", "V" or "A". The symbol is "" when none was given.
func ParseUnit(text string) (float64, string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, "", &ValueParseError{Text: text, Err: ErrEmpty}
	}
	expr, err := valueParser.ParseString("", trimmed)
	if err != nil {
		return 0, "", &ValueParseError{Text: text, Err: err}
	}
	n, err := expr.Eval(text)
	if err != nil {
		return 0, "", err
	}
	return n, expr.Symbol(), nil
}

// Symbol returns the normalized unit symbol of e.
func (e *Expr) Symbol() string {
	switch strings.ToLower(e.Unit) {
	case "":
		return ""
	case "v":
		return "V"
	case "a":
		return "A"
	}
	return "Ω"
}

// Eval returns the numeric value of a parsed expression. text is only used
// for error reporting.
func (e *Expr) Eval(text string) (float64, error) {
	n, err := strconv.ParseFloat(e.Mantissa, 64)
	if err != nil {
		return 0, &ValueParseError{Text: text, Err: err}
	}
	if e.Prefix != "" {
		n *= Prefixes[e.Prefix]
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, &ValueParseError{Text: text, Err: fmt.Errorf("value out of range")}
	}
	return n, nil
}

// Valid reports whether text parses.
func Valid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

// Format renders n with the largest prefix that keeps the mantissa >= 1,
// e.g. 4700 -> "4.7k". It is the inverse of Parse for values without units.
func Format(n float64) string {
	if n == 0 {
		return "0"
	}
	abs := math.Abs(n)
	for _, p := range []struct {
		sym  string
		mult float64
	}{{"G", 1e9}, {"M", 1e6}, {"k", 1e3}, {"", 1}, {"m", 1e-3}, {"u", 1e-6}, {"n", 1e-9}, {"p", 1e-12}} {
		if abs >= p.mult {
			return strconv.FormatFloat(n/p.mult, 'f', -1, 64) + p.sym
		}
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
