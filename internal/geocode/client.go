// Package geocode resolves street addresses to coordinates through a
// Nominatim-compatible service, with a cache in front. Lookups are strictly
// best effort: profile writes never fail on a geocoding problem.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Result is one resolved address.
type Result struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Client queries a Nominatim-compatible HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
	}
}

// nominatimRow mirrors the wire format: coordinates arrive as strings.
type nominatimRow struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Forward resolves an address to coordinates. An address the service does
// not know yields ErrNoMatch.
func (c *Client) Forward(ctx context.Context, address string) (Result, error) {
	query := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "alumport/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var rows []nominatimRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return Result{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(rows) == 0 {
		return Result{}, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(rows[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse latitude %q: %w", rows[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(rows[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse longitude %q: %w", rows[0].Lon, err)
	}

	return Result{Lat: lat, Lon: lon, DisplayName: rows[0].DisplayName}, nil
}

// Reverse responses are a single object; an unknown location comes back as
// an error field with status 200.
type nominatimReverseRow struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse resolves coordinates to the nearest known address. Points the
// service cannot place yield ErrNoMatch.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Result, error) {
	query := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "alumport/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("reverse geocode request: status %d", resp.StatusCode)
	}

	var row nominatimReverseRow
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return Result{}, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if row.Error != "" || row.DisplayName == "" {
		return Result{}, ErrNoMatch
	}

	resLat, err := strconv.ParseFloat(row.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse latitude %q: %w", row.Lat, err)
	}
	resLon, err := strconv.ParseFloat(row.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse longitude %q: %w", row.Lon, err)
	}

	return Result{Lat: resLat, Lon: resLon, DisplayName: row.DisplayName}, nil
}
