package protocol

import "testing"

func TestFrequencyTableRLS24M(t *testing.T) {
	if len(freqTable24M) != 15 {
		t.Fatalf("RLS2.4M table has %d entries, want 15", len(freqTable24M))
	}
	if got := *frequencyForCode(rlsType24M, 0); got != 2312.5 {
		t.Fatalf("code 0 = %v, want 2312.5", got)
	}
	if got := *frequencyForCode(rlsType24M, 14); got != 2487.5 {
		t.Fatalf("code 14 = %v, want 2487.5", got)
	}
	if frequencyForCode(rlsType24M, 15) != nil {
		t.Fatal("code 15 should be out of range")
	}
}

func TestFrequencyTableRLS24(t *testing.T) {
	if len(freqTable24) != 4 {
		t.Fatalf("RLS2.4 table has %d entries, want 4", len(freqTable24))
	}
	want := []float64{2325, 2375, 2425, 2475}
	for i, w := range want {
		if freqTable24[i] != w {
			t.Fatalf("freqTable24[%d] = %v, want %v", i, freqTable24[i], w)
		}
	}
}

func TestFrequencyTableRLSX(t *testing.T) {
	if len(freqTableX) != 16 {
		t.Fatalf("RLSX table has %d entries, want 16", len(freqTableX))
	}
	if freqTableX[0] != 9235 || freqTableX[15] != 9760 {
		t.Fatalf("RLSX endpoints = %v, %v, want 9235, 9760", freqTableX[0], freqTableX[15])
	}
}

func TestRadarTypeForCodeUnknown(t *testing.T) {
	if got := radarTypeForCode(99); got != "" {
		t.Fatalf("unknown code = %q, want empty", got)
	}
}
