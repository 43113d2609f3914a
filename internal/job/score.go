package job

import (
	"encoding/json"
	"math"
	"strconv"
)

// Score is an objective value that survives JSON encoding. Finite values are
// plain numbers; infinities and NaN are written as the strings "+Inf", "-Inf"
// and "NaN", which encoding/json cannot represent as numbers.
type Score float64

// Finite reports whether s is neither infinite nor NaN.
func (s Score) Finite() bool {
	return !math.IsInf(float64(s), 0) && !math.IsNaN(float64(s))
}

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		*s = Score(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}
