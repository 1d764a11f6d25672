package input

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"":       0,
		"  ":     0,
		"12.5":   12.5,
		" 7 ":    7,
		"abc":    0,
		"1e3":    1000,
		"NaN":    0,
		"+Inf":   0,
		"-4.25":  -4.25,
		"3.2.1":  0,
		"10,000": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNumber(in), "input %q", in)
	}
	assert.Equal(t, 75, ParseInt("75.9"))
}

func TestNumberUnmarshal(t *testing.T) {
	var body struct {
		Birth Number `json:"birthRate"`
		Death Number `json:"deathRate"`
		Years Number `json:"yearsToProject"`
		Blank Number `json:"blank"`
		Null  Number `json:"null"`
	}
	err := json.Unmarshal([]byte(`{"birthRate":"18.5","deathRate":9,"yearsToProject":"x","blank":"","null":null}`), &body)
	require.NoError(t, err)

	assert.Equal(t, 18.5, body.Birth.Float())
	assert.Equal(t, 9.0, body.Death.Float())
	assert.Equal(t, 0, body.Years.Int())
	assert.Equal(t, 0.0, body.Blank.Float())
	assert.Equal(t, 0.0, body.Null.Float())
}

func TestParsePyramidForm(t *testing.T) {
	values := map[string]string{
		"male_0":    "12.5",
		"female_0":  "11",
		"male_3":    "-2",
		"female_10": "0.3",
		"male_5":    "oops",
	}
	p := ParsePyramidForm(func(name string) string { return values[name] })

	assert.Equal(t, 12.5, p.Male[0])
	assert.Equal(t, 11.0, p.Female[0])
	assert.Equal(t, 0.0, p.Male[3])
	assert.Equal(t, 0.0, p.Male[5])
	assert.Equal(t, 0.3, p.Female[10])
}

func TestValidatePercentTotal(t *testing.T) {
	values := map[string]string{}
	for i := 0; i < 10; i++ {
		values[MaleField(i)] = "5"
		values[FemaleField(i)] = "5"
	}
	p := ParsePyramidForm(func(name string) string { return values[name] })
	require.NoError(t, ValidatePercentTotal(p))

	p.Male[0] += 0.5
	err := ValidatePercentTotal(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Current total: 100.50")
}
