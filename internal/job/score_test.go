package job

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreJSON(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		want  string
	}{
		{name: "finite", score: 1.5, want: `1.5`},
		{name: "sentinel", score: Score(-math.MaxFloat64), want: `-1.7976931348623157e+308`},
		{name: "positive infinity", score: Score(math.Inf(1)), want: `"+Inf"`},
		{name: "negative infinity", score: Score(math.Inf(-1)), want: `"-Inf"`},
		{name: "nan", score: Score(math.NaN()), want: `"NaN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(struct {
				Score Score `json:"score"`
			}{tt.score})
			require.NoError(t, err)
			assert.JSONEq(t, `{"score":`+tt.want+`}`, string(data))

			var back Score
			require.NoError(t, json.Unmarshal([]byte(tt.want), &back))
			if math.IsNaN(float64(tt.score)) {
				assert.True(t, math.IsNaN(float64(back)))
				return
			}
			assert.Equal(t, tt.score, back)
		})
	}
}

func TestScoreFinite(t *testing.T) {
	assert.True(t, Score(0).Finite())
	assert.False(t, Score(math.Inf(1)).Finite())
	assert.False(t, Score(math.NaN()).Finite())
}

func TestScoreRejectsText(t *testing.T) {
	var s Score
	assert.Error(t, json.Unmarshal([]byte(`"big"`), &s))
}
