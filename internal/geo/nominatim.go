// Package geo resolves free-text place names through the Nominatim search
// API. Lookup failures and timeouts are ordinary misses for callers, never
// fatal.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/culturalabs/cultura/internal/config"
)

// Place is the best-match geographic record for a query.
type Place struct {
	Query       string
	DisplayName string
	Source      string
	Latitude    float64
	Longitude   float64
	BoundingBox []string
	City        string
	State       string
	Country     string
	Found       bool
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Lookup is the interface consumed by the enricher; *Client implements it.
type Lookup interface {
	Lookup(ctx context.Context, query string) (Place, error)
}

func NewClient(cfg config.GeoConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultGeoTimeoutSecs) * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGeoBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultGeoUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Lookup returns the best match for query. A nil error with Found=false
// means the service answered but had no match.
func (c *Client) Lookup(ctx context.Context, query string) (Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Place{Query: query}, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{Query: query}, fmt.Errorf("lookup %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{Query: query}, fmt.Errorf("lookup %q: unexpected status %d", query, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Place{Query: query}, fmt.Errorf("read lookup body: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Place{Query: query}, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(results) == 0 {
		return Place{Query: query}, nil
	}

	r := results[0]
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return Place{
		Query:       query,
		DisplayName: r.DisplayName,
		Source:      "nominatim",
		Latitude:    lat,
		Longitude:   lon,
		BoundingBox: r.BoundingBox,
		City:        city,
		State:       r.Address.State,
		Country:     r.Address.Country,
		Found:       true,
	}, nil
}
