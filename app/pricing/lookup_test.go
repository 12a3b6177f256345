package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/rosesandhello/facescrape/app/market"
)

type MockComparablesSource struct {
	samples   []market.PriceSample
	err       error
	callCount int
	lastQuery string
}

var _ market.ComparablesSource = (*MockComparablesSource)(nil)

func (m *MockComparablesSource) FetchSoldComparables(ctx context.Context, query string) ([]market.PriceSample, error) {
	m.callCount++
	m.lastQuery = query
	return m.samples, m.err
}

func samplesAt(prices ...float64) []market.PriceSample {
	samples := make([]market.PriceSample, len(prices))
	for i, p := range prices {
		samples[i] = market.PriceSample{Price: p}
	}
	return samples
}

func TestLookupUsesMean(t *testing.T) {
	source := &MockComparablesSource{samples: samplesAt(100, 150, 200)}
	lookup := NewLookup(source, false)

	stats, err := lookup.Run(context.Background(), "nintendo switch")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if stats.Reference != 150 {
		t.Errorf("Expected mean reference 150, got %f", stats.Reference)
	}
	if stats.Min != 100 || stats.Max != 200 {
		t.Errorf("Expected min 100 max 200, got %f / %f", stats.Min, stats.Max)
	}
	if stats.SampleSize != 3 {
		t.Errorf("Expected 3 samples, got %d", stats.SampleSize)
	}
	if source.lastQuery != "nintendo switch" {
		t.Errorf("Unexpected query: %q", source.lastQuery)
	}
}

func TestLookupUsesLowest(t *testing.T) {
	source := &MockComparablesSource{samples: samplesAt(100, 150, 200)}
	lookup := NewLookup(source, true)

	stats, err := lookup.Run(context.Background(), "nintendo switch")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if stats.Reference != 100 {
		t.Errorf("Expected lowest reference 100, got %f", stats.Reference)
	}
}

func TestLookupEmptyIsNotError(t *testing.T) {
	source := &MockComparablesSource{}
	lookup := NewLookup(source, false)

	stats, err := lookup.Run(context.Background(), "obscure thing")
	if err != nil {
		t.Fatalf("Expected no error for empty result set, got: %v", err)
	}
	if stats.HasComparables() {
		t.Error("Expected no comparables")
	}
	if stats.Reference != 0 {
		t.Errorf("Expected zero reference, got %f", stats.Reference)
	}
}

func TestLookupPropagatesFetchError(t *testing.T) {
	source := &MockComparablesSource{err: errors.New("network down")}
	lookup := NewLookup(source, false)

	_, err := lookup.Run(context.Background(), "nintendo switch")
	if err == nil {
		t.Fatal("Expected error")
	}
}

func TestAggregateSingleSample(t *testing.T) {
	stats := Aggregate(samplesAt(75), true)
	if stats.Reference != 75 || stats.Min != 75 || stats.Max != 75 || stats.Avg != 75 {
		t.Errorf("Unexpected stats for single sample: %+v", stats)
	}
}
