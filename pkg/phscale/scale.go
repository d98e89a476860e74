// Package phscale holds the fixed pH reference scale used for colour matching.
//
// The scale has one calibration point per integer pH from 0 to 14, ordered by
// ascending pH. It is read-only for the lifetime of the process; callers only
// ever receive copies.
package phscale

import (
	"fmt"
	"image/color"
)

// MaxPH is the highest pH on the scale.
const MaxPH = 14

// Label is the coarse acid/base bucket of a calibration point.
type Label string

const (
	LabelStrongAcid Label = "Strong Acid"
	LabelAcid       Label = "Acid"
	LabelWeakAcid   Label = "Weak Acid"
	LabelNeutral    Label = "Neutral"
	LabelWeakBase   Label = "Weak Base"
	LabelBase       Label = "Base"
	LabelStrongBase Label = "Strong Base"
)

// CalibrationPoint maps an integer pH to its reference colour.
type CalibrationPoint struct {
	PH    int   `json:"ph"`
	R     uint8 `json:"r"`
	G     uint8 `json:"g"`
	B     uint8 `json:"b"`
	Label Label `json:"label"`
}

// Color returns the reference colour as an opaque color.RGBA.
func (p CalibrationPoint) Color() color.RGBA {
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}
}

// Hex returns the reference colour as #rrggbb.
func (p CalibrationPoint) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", p.R, p.G, p.B)
}

func (p CalibrationPoint) String() string {
	return fmt.Sprintf("pH %d (%s) %s", p.PH, p.Label, p.Hex())
}

var scale = [MaxPH + 1]CalibrationPoint{
	{PH: 0, R: 230, G: 27, B: 35, Label: LabelStrongAcid},
	{PH: 1, R: 235, G: 50, B: 35, Label: LabelStrongAcid},
	{PH: 2, R: 242, G: 104, B: 42, Label: LabelAcid},
	{PH: 3, R: 247, G: 148, B: 38, Label: LabelAcid},
	{PH: 4, R: 252, G: 194, B: 30, Label: LabelWeakAcid},
	{PH: 5, R: 255, G: 235, B: 23, Label: LabelWeakAcid},
	{PH: 6, R: 196, G: 214, B: 51, Label: LabelWeakAcid},
	{PH: 7, R: 76, G: 175, B: 80, Label: LabelNeutral},
	{PH: 8, R: 0, G: 153, B: 121, Label: LabelWeakBase},
	{PH: 9, R: 0, G: 122, B: 146, Label: LabelWeakBase},
	{PH: 10, R: 0, G: 94, B: 157, Label: LabelBase},
	{PH: 11, R: 61, G: 61, B: 146, Label: LabelBase},
	{PH: 12, R: 85, G: 55, B: 140, Label: LabelStrongBase},
	{PH: 13, R: 96, G: 46, B: 128, Label: LabelStrongBase},
	{PH: 14, R: 68, G: 31, B: 96, Label: LabelStrongBase},
}

// Points returns a copy of the reference scale in ascending pH order.
func Points() []CalibrationPoint {
	out := make([]CalibrationPoint, len(scale))
	copy(out, scale[:])
	return out
}

// Len returns the number of calibration points.
func Len() int {
	return len(scale)
}

// Lookup returns the calibration point for ph.
func Lookup(ph int) (CalibrationPoint, bool) {
	if ph < 0 || ph > MaxPH {
		return CalibrationPoint{}, false
	}
	return scale[ph], true
}

// Position returns where ph sits on a 0..14 axis as a fraction in [0, 1].
// Renderers use it to place the marker on the reference gradient.
func Position(ph int) float64 {
	return float64(ph) / MaxPH
}
