package normalizer

import (
	"strings"
	"testing"

	"schooldata/internal/logger"
)

func TestResultsNormalizer_KS4(t *testing.T) {
	n := NewResultsNormalizer(KS4, logger.Discard())

	data := "URN,ATT8SCR,P8MEA,PTL2BASICS_94,PTL2BASICS_95,PTEBACC,EBACCAPS\n" +
		"100001,52.3,0.41,78%,61,42,4.91\n" +
		"100002,,0.1,70,50,30,4.0\n" +
		"100003,SUPP,NE,NA,,,\n" +
		",48.0,0,60,40,20,3.5\n" +
		"100004,39.8,-0.52,SUPP,40,,\n"

	if err := n.AddYear(2023, strings.NewReader(data)); err != nil {
		t.Fatalf("AddYear failed: %v", err)
	}

	results, summary := n.Results()

	if len(results) != 2 {
		t.Fatalf("Expected 2 schools, got %d", len(results))
	}

	if _, ok := results["100002"]; ok {
		t.Error("Row with empty ATT8SCR should be excluded")
	}

	r := results["100001"][0]
	if r.Year != 2023 {
		t.Errorf("Year = %d, want 2023", r.Year)
	}

	if r.Attainment8 == nil || *r.Attainment8 != 52.3 {
		t.Errorf("Attainment8 = %v, want 52.3", r.Attainment8)
	}

	if r.Basics94 == nil || *r.Basics94 != 78 {
		t.Errorf("Basics94 = %v, want 78", r.Basics94)
	}

	low := results["100004"][0]
	if low.Progress8 == nil || *low.Progress8 != -0.52 {
		t.Errorf("Progress8 = %v, want -0.52", low.Progress8)
	}

	if low.Basics94 != nil || low.EBacc != nil {
		t.Errorf("Expected suppressed and blank metrics to be nil, got %v and %v", low.Basics94, low.EBacc)
	}

	if summary.Rows.Rejected(ReasonHeadline) != 2 {
		t.Errorf("Rejected(headline) = %d, want 2", summary.Rows.Rejected(ReasonHeadline))
	}

	if summary.Rows.Rejected(ReasonMissingURN) != 1 {
		t.Errorf("Rejected(missing urn) = %d, want 1", summary.Rows.Rejected(ReasonMissingURN))
	}

	if len(summary.Years) != 1 || summary.Years[0].Read != 5 || summary.Years[0].Kept != 2 {
		t.Errorf("Years = %+v, want one year with 5 read and 2 kept", summary.Years)
	}
}

func TestResultsNormalizer_KS2Gate(t *testing.T) {
	tests := []struct {
		name string
		row  string
		kept bool
	}{
		{"empty combined", "1,,80,75", false},
		{"suppressed combined", "2,SUPP,70,68", false},
		{"not entered combined", "4,NE,65,60", false},
		{"text combined", "5,low,65,60", false},
		{"populated combined", "3,55,60,58", true},
		{"zero combined", "6,0,10,12", true},
	}

	data := "URN,PTRWM_EXP,PTREAD_EXP,PTMAT_EXP\n"
	want := 0
	for _, tt := range tests {
		data += tt.row + "\n"
		if !tt.kept {
			want++
		}
	}

	n := NewResultsNormalizer(KS2, logger.Discard())
	if err := n.AddYear(2023, strings.NewReader(data)); err != nil {
		t.Fatalf("AddYear failed: %v", err)
	}

	results, summary := n.Results()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urn, _, _ := strings.Cut(tt.row, ",")
			if _, ok := results[urn]; ok != tt.kept {
				t.Errorf("urn %s kept = %v, want %v", urn, ok, tt.kept)
			}
		})
	}

	if got := summary.Rows.Rejected(ReasonHeadline); got != want {
		t.Errorf("Rejected(headline) = %d, want %d", got, want)
	}

	if r := results["3"][0]; r.ReadingExpected == nil || *r.ReadingExpected != 60 {
		t.Errorf("ReadingExpected = %v, want 60", r.ReadingExpected)
	}
}

func TestResultsNormalizer_YearOrder(t *testing.T) {
	n := NewResultsNormalizer(KS2, logger.Discard())

	header := "URN,PTRWM_EXP,PTREAD_EXP,READPROG\n"
	years := []struct {
		year int
		data string
	}{
		{2023, header + "200001,61,75,0.5\n"},
		{2022, header + "200001,58,72,-0.2\n200002,40,50,0\n"},
		{2019, header + "200001,65,80,1.1\n"},
	}

	for _, y := range years {
		if err := n.AddYear(y.year, strings.NewReader(y.data)); err != nil {
			t.Fatalf("AddYear(%d) failed: %v", y.year, err)
		}
	}

	results, summary := n.Results()

	got := results["200001"]
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}

	for i, want := range []int{2023, 2022, 2019} {
		if got[i].Year != want {
			t.Errorf("records[%d].Year = %d, want %d", i, got[i].Year, want)
		}
	}

	if got[0].CombinedExpected == nil || *got[0].CombinedExpected != 61 {
		t.Errorf("CombinedExpected = %v, want 61", got[0].CombinedExpected)
	}

	// Zero is a value, not a missing figure.
	zero := results["200002"][0].ProgressReading
	if zero == nil || *zero != 0 {
		t.Errorf("ProgressReading = %v, want 0", zero)
	}

	if got[0].WritingExpected != nil {
		t.Errorf("Absent column should be nil, got %v", *got[0].WritingExpected)
	}

	if summary.Schools != 2 || summary.Rows.Kept != 4 || len(summary.Years) != 3 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestResultsNormalizer_Empty(t *testing.T) {
	n := NewResultsNormalizer(KS2, logger.Discard())

	results, summary := n.Results()
	if len(results) != 0 || summary.Schools != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
