package protocol

import "gonum.org/v1/gonum/floats"

// Radar type codes from the 0x14 server-status packet, byte [24].
const (
	radarCodeRLS24  = 0
	radarCodeRLS24M = 1
	radarCodeRLSX   = 2
)

const (
	rlsType24  = "RLS2.4"
	rlsType24M = "RLS2.4M"
	rlsTypeX   = "RLSX"
)

// frequency tables: evenly spaced MHz values, one entry per frequency code.
// Built with floats.Span (gonum's linspace-style helper) instead of a
// hand-rolled accumulating loop, since each table is exactly an evenly
// spaced range between two known endpoints.
var (
	freqTable24  = span(2325, 2475, 4)
	freqTable24M = span(2312.5, 2487.5, 15)
	freqTableX   = span(9235, 9760, 16)
)

func span(first, last float64, n int) []float64 {
	dst := make([]float64, n)
	floats.Span(dst, first, last)
	return dst
}

// radarTypeForCode maps the byte[24] code to a radar type name. Returns
// "" for an unrecognized code.
func radarTypeForCode(code uint8) string {
	switch code {
	case radarCodeRLS24:
		return rlsType24
	case radarCodeRLS24M:
		return rlsType24M
	case radarCodeRLSX:
		return rlsTypeX
	default:
		return ""
	}
}

// frequencyForCode maps a radar type and frequency code to a frequency in
// MHz. Returns nil when the code is out of range for that radar type, or
// the radar type is unrecognized.
func frequencyForCode(radarType string, code uint8) *float64 {
	var table []float64
	switch radarType {
	case rlsType24:
		table = freqTable24
	case rlsType24M:
		table = freqTable24M
	case rlsTypeX:
		table = freqTableX
	default:
		return nil
	}
	if int(code) >= len(table) {
		return nil
	}
	f := table[code]
	return &f
}
