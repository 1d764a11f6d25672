// Package report renders population pyramids to printable documents.
package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"pyramid-engine/internal/engine"
	"pyramid-engine/internal/model"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	labelWidth = 20.0
	barHeight  = 9.0
	barGap     = 2.0
)

// PyramidReport draws one pyramid page: male bars to the left of the age
// labels, female bars to the right.
type PyramidReport struct {
	pdf     *fpdf.Fpdf
	title   string
	pyramid model.Pyramid
	now     func() time.Time
}

// RenderPyramidPDF returns a one-page PDF of the pyramid.
func RenderPyramidPDF(title string, p model.Pyramid) ([]byte, error) {
	report := &PyramidReport{
		pdf:     fpdf.New("P", "mm", "A4", ""),
		title:   title,
		pyramid: p,
		now:     time.Now,
	}

	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)
	report.pdf.SetTitle(title, false)

	report.pdf.AddPage()
	report.addHeading()
	report.addBars()
	report.addSummary()

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PyramidReport) addHeading() {
	r.pdf.SetFont("Arial", "B", 18)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, r.title, "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", r.now().Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.Ln(4)

	// Legend
	half := contentWidth / 2
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(33, 150, 243)
	r.pdf.CellFormat(half, 7, "Male", "", 0, "C", false, 0, "")
	r.pdf.SetTextColor(233, 30, 99)
	r.pdf.CellFormat(half, 7, "Female", "", 1, "C", false, 0, "")
	r.pdf.Ln(2)
}

// scale is the widest bracket value, so the longest bar fills its half.
func (r *PyramidReport) scale() float64 {
	widest := 0.0
	for i := 0; i < model.NumBrackets; i++ {
		widest = math.Max(widest, math.Max(r.pyramid.Male[i], r.pyramid.Female[i]))
	}
	return widest
}

func (r *PyramidReport) addBars() {
	barSpace := (contentWidth - labelWidth) / 2
	centerLeft := marginLeft + barSpace
	centerRight := centerLeft + labelWidth
	widest := r.scale()

	r.pdf.SetFont("Arial", "", 9)
	y := r.pdf.GetY()
	for i := model.NumBrackets - 1; i >= 0; i-- {
		male, female := r.pyramid.Male[i], r.pyramid.Female[i]
		var maleWidth, femaleWidth float64
		if widest > 0 {
			maleWidth = male / widest * barSpace
			femaleWidth = female / widest * barSpace
		}

		r.pdf.SetFillColor(33, 150, 243)
		r.pdf.Rect(centerLeft-maleWidth, y, maleWidth, barHeight, "F")
		r.pdf.SetFillColor(233, 30, 99)
		r.pdf.Rect(centerRight, y, femaleWidth, barHeight, "F")

		r.pdf.SetTextColor(50, 50, 50)
		r.pdf.SetXY(centerLeft, y)
		r.pdf.CellFormat(labelWidth, barHeight, model.AgeBrackets[i], "", 0, "C", false, 0, "")

		r.pdf.SetTextColor(80, 80, 80)
		r.pdf.SetXY(marginLeft, y)
		r.pdf.CellFormat(math.Max(1, barSpace-maleWidth-1), barHeight, fmt.Sprintf("%.1f", male), "", 0, "R", false, 0, "")
		r.pdf.SetXY(centerRight+femaleWidth+1, y)
		r.pdf.CellFormat(20, barHeight, fmt.Sprintf("%.1f", female), "", 0, "L", false, 0, "")

		y += barHeight + barGap
	}

	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.Line(marginLeft, y+2, marginLeft+contentWidth, y+2)
	r.pdf.SetXY(marginLeft, y+6)
}

func (r *PyramidReport) addSummary() {
	s := engine.Summarize(r.pyramid)
	youth := "n/a"
	if s.YouthRatioDefined() {
		youth = fmt.Sprintf("%.1f%%", s.YouthRatio*100)
	}

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.CellFormat(contentWidth, 7,
		fmt.Sprintf("Total: %.1f   Male: %.1f   Female: %.1f   Under 20: %s", s.Total, s.MaleTotal, s.FemaleTotal, youth),
		"", 1, "C", false, 0, "")
}
