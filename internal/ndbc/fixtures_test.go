package ndbc

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const realTimeStandard = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 02 09 12 50 200  5.0  6.0   1.2     8   5.5 190 1015.2  10.1  12.3   8.0   MM -1.2    MM
2024 02 09 12 40 210  4.0  5.0    MM    MM    MM  MM 1015.3  10.0  12.3   7.9   MM   MM    MM
`

const realTimeOcean = `#YY  MM DD hh mm   DEPTH  OTMP   COND   SAL   O2% O2PPM  CLCON  TURB    PH    EH
#yr  mo dy hr mn       m  degC  mS/cm   psu     %   ppm   ug/l   FTU     -    mv
2024 02 09 12 00     1.0 12.41  42.51 36.20    MM    MM     MM    MM    MM    MM
`

const realTimeSpecSummary = `#YY  MM DD hh mm WVHT  SwH  SwP  WWH  WWP SwD WWD  STEEPNESS  APD MWD
#yr  mo dy hr mn    m    m  sec    m  sec  -  degT     -      sec degT
2024 02 09 12 40  1.2  1.0 10.0  0.6  5.0 SSE   S    AVERAGE  6.2 160
2024 02 09 11 40  1.3   MM   MM   MM   MM  MM  MM        N/A  6.0 158
`

const realTimeSpecSummaryOld = `YYYY MM DD hh mm  H0  SwH  SwP  WWH  WWP SwD WWD  STEEPNESS  AVP MWD
2024 02 09 12 40  1.2  1.0 10.0  0.6  5.0 SSE   S    AVERAGE  6.2 160
`

const realTimeDataSpec = `#YY  MM DD hh mm Sep_Freq  < spec_1 (freq_1) spec_2 (freq_2) spec_3 (freq_3) ... >
2024 02 09 12 40 9.999 0.000 (0.033) 0.000 (0.038) 0.024 (0.043)
2024 02 09 11 40 0.180 0.000 (0.033) 0.010 (0.038)
`

const realTimeSwdir = `#YY  MM DD hh mm alpha1_1 (freq_1) alpha1_2 (freq_2) alpha1_3 (freq_3) ... >
2024 02 09 12 40 999.0 (0.033) 254.0 (0.038) 250.0 (0.043)
`

const archive2010 = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  mi    ft
2010 01 01 00 50  99  7.1  8.5  1.47  7.14  5.36  91 1018.4  16.4  20.8  12.7 99.0 99.00
2010 01 01 01 50 999 99.0 99.0 99.00 99.00 99.00 999 9999.0 999.0 999.0 999.0 99.0 99.00
`

const archive2005 = `YYYY MM DD hh mm  WD  WSPD GST  WVHT  DPD   APD   MWD  BAR    ATMP  WTMP  DEWP  VIS  TIDE
2005 07 04 13 50 180  3.2  4.0  0.40  6.25  4.10 999 1013.9  27.1  28.3  23.9 99.0 99.00
`

const archive1989 = `YY MM DD hh WD   WSPD GST  WVHT  DPD   APD   MWD  BAR    ATMP  WTMP  DEWP  VIS
89 01 01 00 190  4.4  5.2  0.80  7.70  5.10 999 1021.5  16.7  19.6 999.0 99.0
89 01 01 01 200  4.9  5.8  0.85  7.70  5.20 999 1021.1  16.6  19.6 999.0 99.0
`

const archiveSwden = `#YY  MM DD hh mm   .0200  .0325  .0375
2023 06 01 00 40   0.00   0.05 999.00
`

func listingHTML(files ...string) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<html>
 <head>
  <title>Index of /data/realtime2</title>
 </head>
 <body>
<h1>Index of /data/realtime2</h1>
  <table>
   <tr><th valign="top"><img src="/icons/blank.gif" alt="[ICO]"></th><th><a href="?C=N;O=D">Name</a></th><th><a href="?C=M;O=A">Last modified</a></th><th><a href="?C=S;O=A">Size</a></th><th><a href="?C=D;O=A">Description</a></th></tr>
   <tr><th colspan="5"><hr></th></tr>
<tr><td valign="top"><img src="/icons/back.gif" alt="[PARENTDIR]"></td><td><a href="/data/">Parent Directory</a></td><td>&nbsp;</td><td align="right">  - </td><td>&nbsp;</td></tr>
`)
	for _, f := range files {
		fmt.Fprintf(&sb, `<tr><td valign="top"><img src="/icons/text.gif" alt="[TXT]"></td><td><a href="%s">%s</a></td><td align="right">2024-02-09 13:05  </td><td align="right"> 41K</td><td>&nbsp;</td></tr>
`, f, f)
	}
	sb.WriteString(`   <tr><th colspan="5"><hr></th></tr>
</table>
</body></html>
`)
	return sb.String()
}

// fakeNDBC serves canned files keyed by path, or by "view:<dir><filename>"
// for view_text_file.php requests. Unknown keys 404.
type fakeNDBC struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string]string
	requests []string
}

func newFakeNDBC(t *testing.T, files map[string]string) *fakeNDBC {
	t.Helper()
	f := &fakeNDBC{files: files}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.Path == "/view_text_file.php" {
			q := r.URL.Query()
			key = "view:" + q.Get("dir") + q.Get("filename")
		}

		f.mu.Lock()
		f.requests = append(f.requests, key)
		body, ok := f.files[key]
		f.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeNDBC) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.requests {
		if k == key {
			n++
		}
	}
	return n
}

const archiveDrift = `#YY  MM DD hhmm    LAT      LON WDIR WSPD  GST   PRES  PTDY  ATMP  WTMP  DEWP  WVHT  DPD
#yr  mo dy hrmn    deg      deg degT  m/s  m/s    hPa   hPa  degC  degC  degC     m  sec
2023 01 01 1230  41.230  -69.450 230  7.2  9.1 1012.4  -0.6   4.2   8.9   1.1  1.40  7.0
2023 01 01 0005  41.228  -69.461 999 99.0 99.0 9999.0  99.0 999.0 999.0 999.0 99.00 99.0
`

const archiveDart = `#YY  MM DD hh mm ss T   HEIGHT
#yr  mo dy hr mn  s -        m
2023 03 01 06 15 00 1 5773.486
2023 03 01 06 15 15 2 5773.490
2023 03 01 06 15 30 2 9999.000
`

const archiveSwdir = `#YY  MM DD hh mm  .0200  .0325  .0375
2023 01 01 00 40   99.0  254.0  999.0
`
