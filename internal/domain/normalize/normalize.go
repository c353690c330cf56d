// Package normalize coerces raw decoder fields into canonical values.
//
// Nothing here returns an error: a value that cannot be normalized becomes
// absent and is treated as non-conforming by the rules.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/okian/argos/internal/domain/types"
)

const (
	indexTokenLength = 6
	indexDecimals    = 4
	distanceDecimals = 3
	floatSlack       = 1e-9
)

// decoderStamp matches "<weekday> <month> <day> <HH:MM:SS> <year>", optionally
// followed by an epoch suffix such as " (1580897373 sec)".
var decoderStamp = regexp.MustCompile(`^[A-Za-z]{3} ([A-Za-z]{3} \d{1,2} \d{2}:\d{2}:\d{2} \d{4})`)

// dayFirstLayouts are tried in order after the decoder form.
var dayFirstLayouts = []string{
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"02-01-2006 15:04:05",
	"02.01.2006 15:04:05",
	"02/01/2006",
}

// Wavelength lower-cases s and strips the "nm" unit, spaces and non-breaking
// spaces. Two traces are on the same band iff their normalized forms match.
func Wavelength(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "nm", "")
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
}

// SameBand reports whether two raw wavelengths normalize to the same band.
func SameBand(a, b string) bool {
	return ExactNormalizedMatch(a, b, Wavelength)
}

// IndexToken keeps the first six characters of a refractive index, which
// tolerates trailing digits of noise in exact reference comparisons.
func IndexToken(s string) string {
	r := []rune(s)
	if len(r) > indexTokenLength {
		r = r[:indexTokenLength]
	}
	return string(r)
}

// IndexValue parses a refractive index, accepting a decimal comma, and rounds
// it to four fractional digits.
func IndexValue(s string) types.Optional[float64] {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return types.None[float64]()
	}
	return types.Some(Round(f, indexDecimals))
}

// PulseDigits concatenates the digit characters of a pulse width.
func PulseDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Timestamp parses the decoder's ctime-like form or a day-first local form.
func Timestamp(s string) types.Optional[time.Time] {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.None[time.Time]()
	}
	if m := decoderStamp.FindStringSubmatch(s); m != nil {
		t, err := time.Parse("Jan _2 15:04:05 2006", m[1])
		if err != nil {
			return types.None[time.Time]()
		}
		return types.Some(t)
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.Some(t)
		}
	}
	return types.None[time.Time]()
}

// FormatTimestamp renders t in the report's day-first layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(types.TimeLayout)
}

// Distance parses a length in km rounded to metres. Failure is absent, not zero.
func Distance(s string) types.Optional[float64] {
	f, ok := parseNumber(s)
	if !ok {
		return types.None[float64]()
	}
	return types.Some(Round(f, distanceDecimals))
}

// Range parses an acquisition range and rounds it to whole kilometres.
func Range(s string) types.Optional[int] {
	f, ok := parseNumber(s)
	if !ok {
		return types.None[int]()
	}
	return types.Some(int(math.Round(f)))
}

// Number parses a plain decimal field such as a loss or slope.
func Number(s string) types.Optional[float64] {
	f, ok := parseNumber(s)
	if !ok {
		return types.None[float64]()
	}
	return types.Some(f)
}

// ExactNormalizedMatch compares a and b after applying norm to both.
func ExactNormalizedMatch(a, b string, norm func(string) string) bool {
	return norm(a) == norm(b)
}

// NumericWithinTolerance reports whether v is present and within tol of
// nominal. An absent value is never within tolerance.
func NumericWithinTolerance(v types.Optional[float64], nominal, tol float64) bool {
	f, ok := v.Get()
	if !ok {
		return false
	}
	return math.Abs(f-nominal) <= tol+floatSlack
}

// Exceeds reports whether spread is strictly greater than tol, ignoring
// binary float noise at the boundary.
func Exceeds(spread, tol float64) bool {
	return spread > tol+floatSlack
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimFunc(s, unicode.IsSpace)
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Round rounds f half away from zero to the given number of decimals.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}
