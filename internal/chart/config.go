// Package chart builds Chart.js configurations for the browser and tracks
// which chart is bound to each drawing surface.
package chart

import (
	"fmt"
	"math"
	"strconv"

	"pyramid-engine/internal/model"
)

// Config mirrors the subset of the Chart.js configuration the UI uses.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label                string    `json:"label"`
	Data                 []float64 `json:"data"`
	BackgroundColor      string    `json:"backgroundColor,omitempty"`
	BorderColor          string    `json:"borderColor,omitempty"`
	BorderWidth          int       `json:"borderWidth,omitempty"`
	Fill                 bool      `json:"fill,omitempty"`
	Tension              float64   `json:"tension,omitempty"`
	PointRadius          int       `json:"pointRadius,omitempty"`
	PointHoverRadius     int       `json:"pointHoverRadius,omitempty"`
	PointBackgroundColor string    `json:"pointBackgroundColor,omitempty"`
	PointBorderColor     string    `json:"pointBorderColor,omitempty"`
	PointBorderWidth     int       `json:"pointBorderWidth,omitempty"`
}

type Options struct {
	IndexAxis   string           `json:"indexAxis,omitempty"`
	Responsive  bool             `json:"responsive"`
	Scales      map[string]Scale `json:"scales"`
	Plugins     Plugins          `json:"plugins"`
	Interaction *Interaction     `json:"interaction,omitempty"`
}

type Scale struct {
	Stacked bool  `json:"stacked,omitempty"`
	Title   Title `json:"title"`
	// TickFormat names a formatter the browser applies: "abs-percent" or
	// "thousands".
	TickFormat string `json:"tickFormat,omitempty"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
	Font    *Font  `json:"font,omitempty"`
	Color   string `json:"color,omitempty"`
}

type Font struct {
	Size   int    `json:"size"`
	Weight string `json:"weight,omitempty"`
}

type Plugins struct {
	Title    Title   `json:"title"`
	Subtitle *Title  `json:"subtitle,omitempty"`
	Legend   *Legend `json:"legend,omitempty"`
	// TooltipFormat names the tooltip value formatter, as Scale.TickFormat
	// does for ticks.
	TooltipFormat string `json:"tooltipFormat,omitempty"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position"`
}

type Interaction struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

// PyramidTitle is the heading for a pyramid at the given year.
func PyramidTitle(year, referenceYear int) string {
	if year == referenceYear {
		return "Population Pyramid - " + strconv.Itoa(year)
	}
	return "Population Pyramid - Year " + strconv.Itoa(year)
}

// Pyramid lays out a population pyramid as stacked horizontal bars. Rows run
// from the oldest bracket down and male values are negated so they extend
// left of the axis.
func Pyramid(p model.Pyramid, title string) Config {
	labels := make([]string, 0, model.NumBrackets)
	male := make([]float64, 0, model.NumBrackets)
	female := make([]float64, 0, model.NumBrackets)
	for i := model.NumBrackets - 1; i >= 0; i-- {
		labels = append(labels, model.AgeBrackets[i])
		male = append(male, -p.Male[i])
		female = append(female, p.Female[i])
	}

	axisFont := &Font{Size: 14, Weight: "bold"}
	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{
				{
					Label:           "Male",
					Data:            male,
					BackgroundColor: "rgba(33, 150, 243, 0.8)",
					BorderColor:     "rgba(33, 150, 243, 1)",
					BorderWidth:     1,
				},
				{
					Label:           "Female",
					Data:            female,
					BackgroundColor: "rgba(233, 30, 99, 0.8)",
					BorderColor:     "rgba(233, 30, 99, 1)",
					BorderWidth:     1,
				},
			},
		},
		Options: Options{
			IndexAxis:  "y",
			Responsive: true,
			Scales: map[string]Scale{
				"x": {Stacked: true, TickFormat: "abs-percent", Title: Title{Display: true, Text: "Population %", Font: axisFont}},
				"y": {Stacked: true, Title: Title{Display: true, Text: "Age Group", Font: axisFont}},
			},
			Plugins: Plugins{
				Title:         Title{Display: true, Text: title, Font: &Font{Size: 18, Weight: "bold"}},
				Legend:        &Legend{Display: true, Position: "top"},
				TooltipFormat: "abs-percent",
			},
		},
	}
}

// Projection lays out a population time series. Clicking a point in the
// browser asks for the pyramid of that year.
func Projection(years []int, population []float64, meta model.ProjectionMetadata) Config {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}

	g, r := meta.GrowthRates, meta.FinalRates
	return Config{
		Type: "line",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:                "Projected Population",
				Data:                 population,
				Fill:                 true,
				BorderColor:          "#4CAF50",
				BackgroundColor:      "rgba(76, 175, 80, 0.3)",
				Tension:              0.4,
				PointRadius:          5,
				PointHoverRadius:     8,
				PointBackgroundColor: "#4CAF50",
				PointBorderColor:     "#2E7D32",
				PointBorderWidth:     2,
			}},
		},
		Options: Options{
			Responsive: true,
			Scales: map[string]Scale{
				"x": {Title: Title{Display: true, Text: "Year"}},
				"y": {TickFormat: "thousands", Title: Title{Display: true, Text: "Population"}},
			},
			Plugins: Plugins{
				Title: Title{
					Display: true,
					Text: fmt.Sprintf("AI-Powered Population Projection (Growth Rates: GDP %s%%, Life %s%%, Urban %s%%)",
						num(g.GDP), num(g.Life), num(g.Urban)),
					Font: &Font{Size: 14, Weight: "bold"},
				},
				Subtitle: &Title{
					Display: true,
					Text: fmt.Sprintf("Final Rates: Birth %s‰, Death %s‰, Migration %s‰",
						num(r.Birth), num(r.Death), num(r.Migration)),
					Font:  &Font{Size: 12},
					Color: "#666",
				},
			},
			Interaction: &Interaction{Mode: "nearest", Intersect: true},
		},
	}
}

// num prints a float the way the browser would: no trailing zeros.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
