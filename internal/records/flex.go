package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

var jsonNull = []byte("null")

// flexString accepts a JSON string, number or null.
// The dataset writes userId as a string while some exports write a number.
// Integral numbers are normalised so 8, 8.0 and 8e0 all decode to "8".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if v, ok := integral(n.String()); ok {
		*f = flexString(strconv.FormatInt(v, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// parseMillis interprets a raw ts value. Integral floats such as
// 1541106106796.0 or 1.541106106796e12 are accepted. ok is false when the
// value is absent, null, fractional or otherwise not an integer.
func parseMillis(raw json.RawMessage) (ms int64, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return 0, false
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	}
	return integral(text)
}

// integral parses text as a JSON number and reports whether it holds an
// integer that fits in int64.
func integral(text string) (int64, bool) {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true
	}
	var n json.Number
	if err := json.Unmarshal([]byte(text), &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
