package stylist

import (
	"context"
	"fmt"
	"testing"

	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/geo"
	"github.com/culturalabs/cultura/internal/profile"
)

func newTestEnricher(t *testing.T, llm Completer, lookup geo.Lookup) *Enricher {
	t.Helper()
	e, err := NewEnricher(llm, lookup, config.CacheConfig{})
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	return e
}

func foundPlace() geo.Place {
	return geo.Place{
		DisplayName: "Mumbai, Maharashtra, India",
		City:        "Mumbai",
		Country:     "India",
		Found:       true,
	}
}

func TestEnrichSkipsEmptyAndUnknown(t *testing.T) {
	lookup := &fakeLookup{place: foundPlace()}
	e := newTestEnricher(t, &scriptedCompleter{}, lookup)

	for _, raw := range []string{"", "  ", "unknown", "Unknown", "UNKNOWN"} {
		if got := e.Enrich(context.Background(), raw); got != nil {
			t.Errorf("Enrich(%q) = %+v, want nil", raw, got)
		}
	}
	if lookup.calls != 0 {
		t.Errorf("lookup calls = %d, want 0", lookup.calls)
	}
}

func TestEnrichLookupCalledOnce(t *testing.T) {
	lookup := &fakeLookup{place: foundPlace()}
	llm := &scriptedCompleter{classification: `{"region": "south_asia", "climate_zone": "tropical", "fashion_market": "indian"}`}
	e := newTestEnricher(t, llm, lookup)

	first := e.Enrich(context.Background(), "Mumbai")
	second := e.Enrich(context.Background(), "Mumbai")

	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1", lookup.calls)
	}
	if first == nil || second == nil {
		t.Fatal("enrichment records should not be nil")
	}
	if first.Region != "south_asia" || second.Region != "south_asia" {
		t.Errorf("regions = %q/%q", first.Region, second.Region)
	}
	// Classification is cached per city/country too.
	if llm.calls != 1 {
		t.Errorf("model calls = %d, want 1", llm.calls)
	}
}

func TestEnrichNoMatchStillTotal(t *testing.T) {
	lookup := &fakeLookup{place: geo.Place{Found: false}}
	e := newTestEnricher(t, &scriptedCompleter{}, lookup)

	got := e.Enrich(context.Background(), "Xyzzyville")
	if got == nil {
		t.Fatal("record should not be nil")
	}
	if got.Place.Found {
		t.Error("place should not be found")
	}
	if got.Region != profile.Unknown || got.ClimateZone != profile.Unknown {
		t.Errorf("scalars = %q/%q, want unknown", got.Region, got.ClimateZone)
	}
	if got.LocalBrands == nil || got.PopularStyles == nil {
		t.Error("lists must be non-nil")
	}
}

func TestEnrichLookupErrorNotCached(t *testing.T) {
	lookup := &fakeLookup{err: fmt.Errorf("timeout")}
	e := newTestEnricher(t, &scriptedCompleter{}, lookup)

	got := e.Enrich(context.Background(), "Mumbai")
	if got == nil || got.Place.Found {
		t.Fatalf("got %+v, want minimal not-found record", got)
	}

	e.Enrich(context.Background(), "Mumbai")
	if lookup.calls != 2 {
		t.Errorf("lookup calls = %d, transient failures should be retried", lookup.calls)
	}
}

func TestEnrichRuleFallbackOnModelFailure(t *testing.T) {
	lookup := &fakeLookup{place: foundPlace()}
	llm := &scriptedCompleter{failClassification: true}
	e := newTestEnricher(t, llm, lookup)

	got := e.Enrich(context.Background(), "Mumbai")
	if got == nil {
		t.Fatal("record should not be nil")
	}
	if got.Region != "south_asia" || got.ClimateZone != "tropical" {
		t.Errorf("rule fallback = %q/%q, want south_asia/tropical", got.Region, got.ClimateZone)
	}
	if len(got.LocalBrands) == 0 {
		t.Error("rule fallback should carry generic brands")
	}
}

func TestRuleClassificationRegions(t *testing.T) {
	tests := []struct {
		country     string
		region      string
		climateZone string
	}{
		{"India", "south_asia", "tropical"},
		{"Pakistan", "south_asia", "tropical"},
		{"United States", "north_america", "temperate"},
		{"Canada", "north_america", "temperate"},
		{"France", "europe", "temperate"},
		{"Atlantis", "unknown", "temperate"},
	}
	for _, tt := range tests {
		c := ruleClassification(tt.country)
		if c.Region != tt.region || c.ClimateZone != tt.climateZone {
			t.Errorf("ruleClassification(%q) = %q/%q, want %q/%q",
				tt.country, c.Region, c.ClimateZone, tt.region, tt.climateZone)
		}
	}
}

func TestParseClassificationWrappedJSON(t *testing.T) {
	out := "Sure, here is the classification:\n```json\n" +
		`{"region": "europe", "climate_zone": "temperate", "fashion_market": "western",
		"local_brands": ["Sandro"], "seasonal_info": "Four seasons"}` +
		"\n```\nLet me know if you need more."

	c := parseClassification(out)
	if c.Region != "europe" || c.FashionMarket != "western" {
		t.Errorf("parsed = %q/%q", c.Region, c.FashionMarket)
	}
	if len(c.LocalBrands) != 1 || c.LocalBrands[0] != "Sandro" {
		t.Errorf("brands = %v", c.LocalBrands)
	}
}

func TestParseClassificationPartialJSON(t *testing.T) {
	c := parseClassification(`{"region":"south_asia","climate_zone":"tropical","fashion_market":"indian"}`)
	if c.Region != "south_asia" {
		t.Errorf("region = %q", c.Region)
	}
	if c.SeasonalInfo != profile.Unknown || c.PriceRangeInfo != profile.Unknown {
		t.Errorf("missing scalars = %q/%q, want unknown", c.SeasonalInfo, c.PriceRangeInfo)
	}
	if c.LocalBrands == nil || len(c.LocalBrands) != 0 {
		t.Errorf("missing lists should normalize to empty, got %v", c.LocalBrands)
	}
}

func TestParseClassificationTextFallback(t *testing.T) {
	out := `region: south_asia
Climate Zone: tropical
fashion_market: "indian"
local_brands: ["FabIndia", "Biba"]
popular_styles: fusion wear, streetwear`

	c := parseClassification(out)
	if c.Region != "south_asia" || c.ClimateZone != "tropical" || c.FashionMarket != "indian" {
		t.Errorf("scalars = %q/%q/%q", c.Region, c.ClimateZone, c.FashionMarket)
	}
	if len(c.LocalBrands) != 2 || c.LocalBrands[0] != "FabIndia" {
		t.Errorf("brands = %v", c.LocalBrands)
	}
	if len(c.PopularStyles) != 2 {
		t.Errorf("styles = %v", c.PopularStyles)
	}
	// Text fallback carries its own defaults for unseen scalars.
	if c.SeasonalInfo != "Varies by season" {
		t.Errorf("seasonal info = %q", c.SeasonalInfo)
	}
}

func TestEffectiveClimateRecommendations(t *testing.T) {
	c := Classification{ClimateZone: "tropical"}
	rec := c.EffectiveClimateRecommendations()
	if len(rec.Fabrics) == 0 || rec.Fabrics[0] != "Cotton" {
		t.Errorf("tropical defaults = %v", rec.Fabrics)
	}

	c.ClimateRecommendations = ClimateRecommendations{Fabrics: []string{"Silk"}}
	rec = c.EffectiveClimateRecommendations()
	if len(rec.Fabrics) != 1 || rec.Fabrics[0] != "Silk" {
		t.Errorf("explicit recommendations should win, got %v", rec.Fabrics)
	}
}
