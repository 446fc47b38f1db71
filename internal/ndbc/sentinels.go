package ndbc

import "strconv"

// archiveSentinels holds the missing-value code of archive columns whose
// field width is known. A 99 degree wind direction is a real reading.
var archiveSentinels = map[string]float64{
	"wd":   999,
	"wdir": 999,
	"mwd":  999,
	"wspd": 99,
	"gst":  99,
	"wvht": 99,
	"dpd":  99,
	"apd":  99,
	"bar":  9999,
	"pres": 9999,
	"atmp": 999,
	"wtmp": 999,
	"dewp": 999,
	"vis":  99,
	"tide": 99,
}

// genericSentinels apply to archive columns without a known code
var genericSentinels = []float64{99, 999, 9999}

func realTimeMissing(_ string, tok string) bool {
	return tok == "MM"
}

func archiveMissing(col, tok string) bool {
	if tok == "MM" {
		return true
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return false
	}
	if s, ok := archiveSentinels[col]; ok {
		return f == s
	}
	for _, s := range genericSentinels {
		if f == s {
			return true
		}
	}
	return false
}

// directionalMissing keeps 99 and 9999, which are ordinary directions and
// coefficients in directional spectra
func directionalMissing(_ string, tok string) bool {
	if tok == "MM" {
		return true
	}
	f, err := strconv.ParseFloat(tok, 64)
	return err == nil && f == 999
}
