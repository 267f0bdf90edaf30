package stylist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/culturalabs/cultura/internal/cache"
	"github.com/culturalabs/cultura/internal/completion"
	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/geo"
	"github.com/culturalabs/cultura/internal/profile"
)

// ClimateRecommendations lists wardrobe guidance derived from the climate
// zone of a market.
type ClimateRecommendations struct {
	Fabrics    []string `json:"fabrics"`
	Colors     []string `json:"colors"`
	Styles     []string `json:"styles"`
	Essentials []string `json:"essentials"`
}

// Classification describes the fashion market around a location.
type Classification struct {
	Region                 string                 `json:"region"`
	ClimateZone            string                 `json:"climate_zone"`
	FashionMarket          string                 `json:"fashion_market"`
	LocalBrands            []string               `json:"local_brands"`
	AvailableStores        []string               `json:"available_stores"`
	OnlinePlatforms        []string               `json:"online_platforms"`
	CulturalConsiderations []string               `json:"cultural_considerations"`
	SeasonalInfo           string                 `json:"seasonal_info"`
	PriceRangeInfo         string                 `json:"price_range_info"`
	PopularStyles          []string               `json:"popular_styles"`
	ClimateRecommendations ClimateRecommendations `json:"climate_recommendations"`
}

// EffectiveClimateRecommendations returns the classified recommendations, or
// the defaults for the climate zone when the model produced none at all.
func (c Classification) EffectiveClimateRecommendations() ClimateRecommendations {
	r := c.ClimateRecommendations
	if len(r.Fabrics)+len(r.Colors)+len(r.Styles)+len(r.Essentials) > 0 {
		return r
	}
	return climateDefaults(c.ClimateZone)
}

// MarketProfile is the full enrichment result for one location: where it is
// and what its fashion market looks like.
type MarketProfile struct {
	Place geo.Place
	Classification
}

// EnrichedLocation converts the geocoded place into the compact form stored
// on the user's profile.
func (mp *MarketProfile) EnrichedLocation() profile.EnrichedLocation {
	return profile.EnrichedLocation{
		OriginalQuery: mp.Place.Query,
		DisplayName:   mp.Place.DisplayName,
		Source:        mp.Place.Source,
		BoundingBox:   mp.Place.BoundingBox,
		Latitude:      mp.Place.Latitude,
		Longitude:     mp.Place.Longitude,
		Found:         mp.Place.Found,
	}
}

const classificationPrompt = `You are a fashion market analyst. Classify this location for fashion recommendations.

Location: %s
City: %s
Country: %s

Respond with ONLY a JSON object, no other text, in exactly this structure:
{
  "region": "region identifier like south_asia, north_america, europe",
  "climate_zone": "tropical, arid, temperate, continental or polar",
  "fashion_market": "market identifier like indian, western, international",
  "local_brands": ["brand1", "brand2"],
  "available_stores": ["store1", "store2"],
  "online_platforms": ["platform1", "platform2"],
  "cultural_considerations": ["consideration1", "consideration2"],
  "seasonal_info": "short description of the seasons",
  "price_range_info": "short description of typical pricing",
  "popular_styles": ["style1", "style2"],
  "climate_recommendations": {
    "fabrics": ["fabric1", "fabric2"],
    "colors": ["color1", "color2"],
    "styles": ["style1", "style2"],
    "essentials": ["item1", "item2"]
  }
}`

// Enricher resolves a raw location string into a geocoded place plus a
// market classification, with bounded caches in front of both steps.
type Enricher struct {
	llm         Completer
	geo         geo.Lookup
	lookupCache *cache.Cache[string, geo.Place]
	classCache  *cache.Cache[string, Classification]
}

func NewEnricher(llm Completer, lookup geo.Lookup, cfg config.CacheConfig) (*Enricher, error) {
	if cfg.LocationEntries <= 0 {
		cfg.LocationEntries = config.DefaultCacheEntries
	}
	if cfg.ClassificationEntries <= 0 {
		cfg.ClassificationEntries = config.DefaultCacheEntries
	}
	lc, err := cache.New[string, geo.Place](cfg.LocationEntries)
	if err != nil {
		return nil, fmt.Errorf("location cache: %w", err)
	}
	cc, err := cache.New[string, Classification](cfg.ClassificationEntries)
	if err != nil {
		return nil, fmt.Errorf("classification cache: %w", err)
	}
	return &Enricher{llm: llm, geo: lookup, lookupCache: lc, classCache: cc}, nil
}

// Enrich geocodes and classifies raw. Empty or "unknown" input yields nil.
// A transport failure during geocoding yields a minimal not-found record and
// is not cached, so the next attempt retries; an answered no-match is cached.
func (e *Enricher) Enrich(ctx context.Context, raw string) *MarketProfile {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, profile.Unknown) {
		return nil
	}

	place, ok := e.lookupCache.Get(raw)
	if !ok {
		p, err := e.geo.Lookup(ctx, raw)
		if err != nil {
			log.Printf("[enrich] lookup %q failed: %v", raw, err)
			return &MarketProfile{
				Place:          geo.Place{Query: raw},
				Classification: normalizeClassification(Classification{}),
			}
		}
		e.lookupCache.Put(raw, p)
		place = p
	}
	if !place.Found {
		return &MarketProfile{
			Place:          place,
			Classification: normalizeClassification(Classification{}),
		}
	}

	return &MarketProfile{Place: place, Classification: e.classify(ctx, place)}
}

func (e *Enricher) classify(ctx context.Context, place geo.Place) Classification {
	key := strings.ToLower(place.City) + "|" + strings.ToLower(place.Country)
	if c, ok := e.classCache.Get(key); ok {
		return c
	}

	prompt := fmt.Sprintf(classificationPrompt,
		place.DisplayName, orUnknown(place.City), orUnknown(place.Country))
	out, err := e.llm.Complete(ctx, prompt, completion.TierComplex)
	if err != nil {
		log.Printf("[enrich] classification for %q degraded, using rules: %v", key, err)
		return ruleClassification(place.Country)
	}

	c := parseClassification(out)
	e.classCache.Put(key, c)
	return c
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassification accepts strict JSON, JSON wrapped in prose or code
// fences, or plain key: value text. Anything it cannot read is dropped and
// the remaining fields are normalized.
func parseClassification(out string) Classification {
	if m := jsonObjectRe.FindString(out); m != "" {
		var c Classification
		if err := json.Unmarshal([]byte(m), &c); err == nil {
			return normalizeClassification(c)
		}
	}
	return parseTextClassification(out)
}

// parseTextClassification is the lenient path for models that ignore the
// JSON instruction: one field per line, key before the first colon.
func parseTextClassification(out string) Classification {
	c := Classification{
		Region:         profile.Unknown,
		ClimateZone:    "temperate",
		FashionMarket:  "international",
		SeasonalInfo:   "Varies by season",
		PriceRangeInfo: "Varies",
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		key := normalizeKey(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "region":
			c.Region = trimScalar(value)
		case "climate_zone":
			c.ClimateZone = trimScalar(value)
		case "fashion_market":
			c.FashionMarket = trimScalar(value)
		case "seasonal_info":
			c.SeasonalInfo = trimScalar(value)
		case "price_range_info":
			c.PriceRangeInfo = trimScalar(value)
		case "local_brands":
			c.LocalBrands = parseListValue(value)
		case "available_stores":
			c.AvailableStores = parseListValue(value)
		case "online_platforms":
			c.OnlinePlatforms = parseListValue(value)
		case "cultural_considerations":
			c.CulturalConsiderations = parseListValue(value)
		case "popular_styles":
			c.PopularStyles = parseListValue(value)
		case "fabrics":
			c.ClimateRecommendations.Fabrics = parseListValue(value)
		case "colors":
			c.ClimateRecommendations.Colors = parseListValue(value)
		case "styles":
			c.ClimateRecommendations.Styles = parseListValue(value)
		case "essentials":
			c.ClimateRecommendations.Essentials = parseListValue(value)
		}
	}
	return normalizeClassification(c)
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.Trim(k, `"'`)
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "-", "_")
	return k
}

func trimScalar(v string) string {
	return strings.Trim(strings.TrimSuffix(v, ","), `"' `)
}

var quotedItemRe = regexp.MustCompile(`"([^"]+)"`)

func parseListValue(v string) []string {
	var items []string
	if ms := quotedItemRe.FindAllStringSubmatch(v, -1); len(ms) > 0 {
		for _, m := range ms {
			items = append(items, m[1])
		}
	} else {
		v = strings.Trim(v, "[], ")
		for _, part := range strings.Split(v, ",") {
			if p := strings.Trim(part, `"' `); p != "" {
				items = append(items, p)
			}
		}
	}
	return items
}

// normalizeClassification guarantees the record is total: every scalar holds
// at least "unknown" and every list is non-nil.
func normalizeClassification(c Classification) Classification {
	c.Region = orUnknown(c.Region)
	c.ClimateZone = orUnknown(c.ClimateZone)
	c.FashionMarket = orUnknown(c.FashionMarket)
	c.SeasonalInfo = orUnknown(c.SeasonalInfo)
	c.PriceRangeInfo = orUnknown(c.PriceRangeInfo)
	c.LocalBrands = orEmpty(c.LocalBrands)
	c.AvailableStores = orEmpty(c.AvailableStores)
	c.OnlinePlatforms = orEmpty(c.OnlinePlatforms)
	c.CulturalConsiderations = orEmpty(c.CulturalConsiderations)
	c.PopularStyles = orEmpty(c.PopularStyles)
	c.ClimateRecommendations.Fabrics = orEmpty(c.ClimateRecommendations.Fabrics)
	c.ClimateRecommendations.Colors = orEmpty(c.ClimateRecommendations.Colors)
	c.ClimateRecommendations.Styles = orEmpty(c.ClimateRecommendations.Styles)
	c.ClimateRecommendations.Essentials = orEmpty(c.ClimateRecommendations.Essentials)
	return c
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return profile.Unknown
	}
	return v
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// ruleClassification is the deterministic classification used when the model
// is unavailable. The country name alone drives region and climate.
func ruleClassification(country string) Classification {
	c := Classification{
		Region:                 profile.Unknown,
		ClimateZone:            "temperate",
		FashionMarket:          "international",
		LocalBrands:            []string{"Zara", "H&M", "Uniqlo"},
		AvailableStores:        []string{"Local malls", "Online retailers"},
		OnlinePlatforms:        []string{"Amazon", "Local e-commerce"},
		CulturalConsiderations: []string{"Weather appropriate", "Occasion suitable"},
		SeasonalInfo:           "Four seasons with varying temperatures",
		PriceRangeInfo:         "Mid-range pricing",
		PopularStyles:          []string{"Casual", "Smart casual", "Formal"},
		ClimateRecommendations: ClimateRecommendations{
			Fabrics:    []string{"Cotton", "Polyester blends"},
			Colors:     []string{"Neutral tones", "Seasonal colors"},
			Styles:     []string{"Layerable pieces", "Versatile basics"},
			Essentials: []string{"Jacket", "Comfortable shoes"},
		},
	}
	switch lc := strings.ToLower(country); {
	case containsAny(lc, "india", "pakistan", "bangladesh", "sri lanka"):
		c.Region = "south_asia"
		c.ClimateZone = "tropical"
	case containsAny(lc, "united states", "usa", "canada"):
		c.Region = "north_america"
	case containsAny(lc, "united kingdom", "france", "germany", "spain", "italy"):
		c.Region = "europe"
	}
	return c
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// climateDefaults provides baseline wardrobe guidance per climate zone.
func climateDefaults(zone string) ClimateRecommendations {
	switch strings.ToLower(zone) {
	case "tropical":
		return ClimateRecommendations{
			Fabrics:    []string{"Cotton", "Linen", "Rayon"},
			Colors:     []string{"Light colors", "Pastels", "White"},
			Styles:     []string{"Loose fits", "Breathable layers", "Flowy silhouettes"},
			Essentials: []string{"Sunglasses", "Light scarf", "Comfortable sandals"},
		}
	case "arid":
		return ClimateRecommendations{
			Fabrics:    []string{"Cotton", "Linen", "Light wool"},
			Colors:     []string{"Earth tones", "Light neutrals"},
			Styles:     []string{"Full coverage", "Loose layers"},
			Essentials: []string{"Sun hat", "Sunglasses", "Light jacket for evenings"},
		}
	default:
		return ClimateRecommendations{
			Fabrics:    []string{"Cotton", "Wool", "Denim"},
			Colors:     []string{"Neutral tones", "Seasonal colors"},
			Styles:     []string{"Layerable pieces", "Versatile basics"},
			Essentials: []string{"Jacket", "Comfortable shoes", "Umbrella"},
		}
	}
}
