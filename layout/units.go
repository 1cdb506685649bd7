package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe helpers for font sizes and lengths.

// Unit represents the original unit of a length value as written in a scene file.
type Unit int

const (
	UnitNone Unit = iota // bare numbers, treated as DIP
	UnitDIP              // device-independent pixels (1/96 in)
	UnitPT               // points (1/72 in)
	UnitIN               // inches
	UnitMM               // millimeters
)

// Conversion constants. A DIP is 1/96 inch regardless of the output DPI.
const (
	DIPPerInch = 96.0
	PtPerInch  = 72.0
	MmPerInch  = 25.4
	PtToDIP    = DIPPerInch / PtPerInch
	DIPToPt    = 1.0 / PtToDIP
)

// PointsToDIP converts a point size to DIPs.
func PointsToDIP(points float64) float64 { return points / PtPerInch * DIPPerInch }

// DIPToPoints converts DIPs to points.
func DIPToPoints(dip float64) float64 { return dip / DIPPerInch * PtPerInch }

// Scale returns the pixel-per-DIP factor for the given DPI; dpi <= 0 means 96.
func Scale(dpi float64) float64 {
	if dpi <= 0 {
		return 1
	}
	return dpi / DIPPerInch
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// DIP converts the length to DIPs.
func (l Length) DIP() float64 {
	switch l.Unit {
	case UnitPT:
		return PointsToDIP(l.Value)
	case UnitIN:
		return l.Value * DIPPerInch
	case UnitMM:
		return l.Value / MmPerInch * DIPPerInch
	default:
		return l.Value
	}
}

// Points converts the length to points. Bare numbers are taken as points,
// which is how font sizes are usually written.
func (l Length) Points() float64 {
	if l.Unit == UnitNone {
		return l.Value
	}
	return DIPToPoints(l.DIP())
}

// ParseLength parses strings like "80pt", "10px", "1in", "3" preserving the unit.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitDIP}, {"dip", UnitDIP}, {"pt", UnitPT}, {"in", UnitIN}, {"mm", UnitMM}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, err
	}
	return Length{Value: f, Unit: unit}, nil
}
