// Package input turns loosely typed form values into the numbers the engine
// expects. Blank or malformed values become zero here, never inside the engine.
package input

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ParseNumber coerces a form value to a float. Blank, malformed and
// non-finite values all become zero.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseInt coerces a form value to an integer, truncating any fraction.
func ParseInt(s string) int {
	return int(ParseNumber(s))
}

// Number is a JSON field that accepts a number, a numeric string or
// anything else, which decodes as zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseNumber(s))
		return nil
	}
	*n = Number(ParseNumber(string(b)))
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

func (n Number) Int() int {
	return int(n)
}
