package completion

import (
	"math"
	"strconv"
	"strings"
)

// Number decodes a JSON number that models sometimes quote ("7", "0.9").
// Anything that is not a number, including null, decodes to zero so the
// caller's default applies to that field alone.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Int rounds n to the nearest integer.
func (n Number) Int() int {
	return int(math.Round(float64(n)))
}
