package normalizer

import (
	"strings"
	"testing"

	"schooldata/internal/logger"
)

func addAdmissions(t *testing.T, rows ...string) *AdmissionsAggregator {
	t.Helper()

	a := NewAdmissionsAggregator(logger.Discard())

	data := strings.Join(AdmissionsColumns, ",") + "\n" + strings.Join(rows, "\n") + "\n"
	if err := a.Add(strings.NewReader(data)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	return a
}

func TestAdmissionsAggregator_Example(t *testing.T) {
	a := NewAdmissionsAggregator(logger.Discard())

	if err := a.Add(strings.NewReader(AdmissionsExample)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	byURN, summary := a.Result()

	camden := byURN["100000"]
	if len(camden) != 1 {
		t.Fatalf("Expected 1 record for 100000, got %d", len(camden))
	}

	if d := camden[0].LastDistanceMetres; d == nil || *d != 695 {
		t.Errorf("LastDistanceMetres = %v, want 695", d)
	}

	if camden[0].PAN == nil || *camden[0].PAN != 90 {
		t.Errorf("PAN = %v, want 90", camden[0].PAN)
	}

	if camden[0].OffersOther == nil || *camden[0].OffersOther != 0 {
		t.Errorf("OffersOther = %v, want 0", camden[0].OffersOther)
	}

	if camden[0].SourceURL == nil || !strings.HasPrefix(*camden[0].SourceURL, "https://www.camden.gov.uk/") {
		t.Errorf("SourceURL = %v", camden[0].SourceURL)
	}

	islington := byURN["100001"]
	if len(islington) != 1 || islington[0].LastDistanceMetres == nil || *islington[0].LastDistanceMetres != 312 {
		t.Errorf("Expected 312m for 100001, got %+v", islington)
	}

	if summary.Schools != 2 || summary.Rows.Kept != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	if summary.Distance.Count != 2 || summary.Distance.Min != 312 || summary.Distance.Max != 695 {
		t.Errorf("Distance = %+v", summary.Distance)
	}

	if summary.Distance.Mean != 503.5 {
		t.Errorf("Mean = %v, want 503.5", summary.Distance.Mean)
	}
}

func TestAdmissionsAggregator_YearOrder(t *testing.T) {
	a := addAdmissions(t,
		"300001,2022,30,80,30,500,,,,,,,Booklet 2022,",
		"300001,2024,30,95,30,450,,,,,,,Booklet 2024,",
		"300001,2023,30,90,30,470,,,,,,,Booklet 2023,",
	)

	byURN, _ := a.Result()

	records := byURN["300001"]
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	for i, want := range []int{2024, 2023, 2022} {
		if records[i].Year != want {
			t.Errorf("records[%d].Year = %d, want %d", i, records[i].Year, want)
		}
	}

	if records[0].SourceURL != nil {
		t.Errorf("SourceURL = %q, want nil", *records[0].SourceURL)
	}
}

func TestAdmissionsAggregator_KeepGate(t *testing.T) {
	a := addAdmissions(t,
		"400001,2024,,,45,,1,2,3,4,,,Offers only,",
		"400002,2024,,120,,,,,,,,,Applications only,",
		"400003,2024,,,,0.5 miles,,,,,,,Distance only,",
		",2024,30,60,30,400,,,,,,,No urn,",
		"400004,next year,30,60,30,400,,,,,,,Bad year,",
		"400005,2024,0,,,,,,,,,,Zero capacity,",
	)

	byURN, summary := a.Result()

	for _, urn := range []string{"400002", "400003", "400005"} {
		if _, ok := byURN[urn]; !ok {
			t.Errorf("Expected %s to be kept", urn)
		}
	}

	if _, ok := byURN["400001"]; ok {
		t.Error("Row with only offer breakdown should be dropped")
	}

	tests := []struct {
		reason string
		want   int
	}{
		{ReasonNoData, 1},
		{ReasonMissingURN, 1},
		{ReasonBadYear, 1},
	}

	for _, tt := range tests {
		if got := summary.Rows.Rejected(tt.reason); got != tt.want {
			t.Errorf("Rejected(%q) = %d, want %d", tt.reason, got, tt.want)
		}
	}
}

func TestAdmissionsAggregator_UnparsedDistance(t *testing.T) {
	a := addAdmissions(t,
		"500001,2024,60,150,60,all applicants,,,,,,,Booklet,",
		"500002,2024,,,,N/A,,,,,,,Booklet,",
	)

	byURN, summary := a.Result()

	records := byURN["500001"]
	if len(records) != 1 {
		t.Fatalf("Expected record kept on capacity, got %d", len(records))
	}

	if records[0].LastDistanceMetres != nil {
		t.Errorf("LastDistanceMetres = %d, want nil", *records[0].LastDistanceMetres)
	}

	if summary.UnparsedDistance != 1 {
		t.Errorf("UnparsedDistance = %d, want 1", summary.UnparsedDistance)
	}

	if _, ok := byURN["500002"]; ok {
		t.Error("Row with sentinel distance and no data should be dropped")
	}

	if summary.Distance.Count != 0 || summary.Distance.MeanMiles() != 0 {
		t.Errorf("Distance = %+v, want empty", summary.Distance)
	}
}
