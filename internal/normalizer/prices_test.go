package normalizer

import (
	"fmt"
	"strings"
	"testing"

	"schooldata/internal/config"
	"schooldata/internal/logger"
	"schooldata/internal/models"
)

// pricePaidRow builds a headerless price-paid line with price and postcode in place.
func pricePaidRow(price, postcode string) string {
	return fmt.Sprintf(`"{ID}","%s","2024-03-01 00:00","%s","S","N","F","1","","HIGH ST","","LONDON","CAMDEN","GREATER LONDON","A","A"`,
		price, postcode)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		prices []int
		want   models.PriceStat
	}{
		{
			name:   "odd count",
			prices: []int{300000, 100000, 200000},
			want:   models.PriceStat{Count: 3, Median: 200000, Avg: 200000, Min: 100000, Max: 300000},
		},
		{
			name:   "even count takes upper middle",
			prices: []int{400000, 100000, 300000, 200000},
			want:   models.PriceStat{Count: 4, Median: 300000, Avg: 250000, Min: 100000, Max: 400000},
		},
		{
			name:   "mean rounds half up",
			prices: []int{1, 2},
			want:   models.PriceStat{Count: 2, Median: 2, Avg: 2, Min: 1, Max: 2},
		},
		{
			name:   "single",
			prices: []int{125000},
			want:   models.PriceStat{Count: 1, Median: 125000, Avg: 125000, Min: 125000, Max: 125000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.prices); got != tt.want {
				t.Errorf("Summarize(%v) = %+v, want %+v", tt.prices, got, tt.want)
			}
		})
	}
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	prices := []int{3, 1, 2}
	Summarize(prices)

	if prices[0] != 3 || prices[1] != 1 || prices[2] != 2 {
		t.Errorf("Summarize modified its input: %v", prices)
	}
}

func TestPriceAggregator(t *testing.T) {
	a := NewPriceAggregator(config.Default().Prices, logger.Discard())

	y2024 := strings.Join([]string{
		pricePaidRow("100000", "NW1 8AB"),
		pricePaidRow("200000", "nw1 8ab"),
		pricePaidRow("500000", "N1 9GU"),
		pricePaidRow("9999", "N1 9GU"),
		pricePaidRow("60000000", "N1 9GU"),
		pricePaidRow("250000", ""),
		`"{ID}","300000","2024-01-01"`,
	}, "\n") + "\n"

	y2023 := strings.Join([]string{
		pricePaidRow("300000", "NW18AB"),
		pricePaidRow("450000", "N1 9GU"),
		pricePaidRow("10000", "E1 6AN"),
		pricePaidRow("50000000", "E1 6AN"),
		pricePaidRow("400000", "E1 6AN"),
		pricePaidRow("350000", "E1 6AN"),
	}, "\n") + "\n"

	for _, data := range []string{y2024, y2023} {
		if err := a.Add(strings.NewReader(data)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	stats, summary := a.Aggregate()

	nw1, ok := stats["NW18AB"]
	if !ok {
		t.Fatal("Expected NW18AB pooled across years")
	}

	if want := (models.PriceStat{Count: 3, Median: 200000, Avg: 200000, Min: 100000, Max: 300000}); nw1 != want {
		t.Errorf("NW18AB = %+v, want %+v", nw1, want)
	}

	if _, ok := stats["N19GU"]; ok {
		t.Error("N19GU has 2 sales and should be absent")
	}

	e1, ok := stats["E16AN"]
	if !ok {
		t.Fatal("Expected E16AN with inclusive price bounds")
	}

	if e1.Count != 4 || e1.Median != 400000 || e1.Min != 10000 || e1.Max != 50000000 {
		t.Errorf("E16AN = %+v", e1)
	}

	if len(stats) != 2 {
		t.Errorf("Expected 2 postcodes, got %d", len(stats))
	}

	if summary.Files != 2 || summary.PostcodesSeen != 3 || summary.PostcodesKept != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	if got := summary.Rows.Rejected(ReasonPrice); got != 2 {
		t.Errorf("Rejected(price) = %d, want 2", got)
	}

	if got := summary.Rows.Rejected(ReasonPostcode); got != 1 {
		t.Errorf("Rejected(postcode) = %d, want 1", got)
	}

	if got := summary.Rows.Rejected(ReasonShortRow); got != 1 {
		t.Errorf("Rejected(short row) = %d, want 1", got)
	}

	if summary.Rows.Read != 13 || summary.Rows.Kept != 9 {
		t.Errorf("Rows = %d read, %d kept, want 13 and 9", summary.Rows.Read, summary.Rows.Kept)
	}

	if want := roundDiv(nw1.Avg+e1.Avg, 2); summary.OverallAverage != want {
		t.Errorf("OverallAverage = %d, want %d", summary.OverallAverage, want)
	}
}

func TestPriceAggregator_MinSales(t *testing.T) {
	cfg := config.Default().Prices
	cfg.MinSales = 1

	a := NewPriceAggregator(cfg, logger.Discard())
	if err := a.Add(strings.NewReader(pricePaidRow("150000", "SW1A 1AA") + "\n")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	stats, _ := a.Aggregate()
	if stats["SW1A1AA"].Count != 1 {
		t.Errorf("Expected a single-sale bucket with min_sales 1, got %+v", stats)
	}
}

func TestPriceAggregator_Empty(t *testing.T) {
	a := NewPriceAggregator(config.Default().Prices, logger.Discard())

	stats, summary := a.Aggregate()
	if len(stats) != 0 || summary.OverallAverage != 0 {
		t.Errorf("Expected no stats, got %+v", stats)
	}
}
