package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/citygrid/traffic-scan/internal/traffic"
)

// TomTomProvider implements the traffic.Provider interface for the TomTom
// flow-segment API.
type TomTomProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewTomTomProvider(client *http.Client, apiKey string) *TomTomProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tomtom",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &TomTomProvider{
		name:    "tomtom",
		apiKey:  apiKey,
		baseURL: "https://api.tomtom.com/traffic/services/4/flowSegmentData/absolute/10/json",
		client:  client,
		circuit: cb,
	}
}

func (p *TomTomProvider) Name() string {
	return p.name
}

// FlowByPoint fetches current traffic flow near a specific lat/lon point.
func (p *TomTomProvider) FlowByPoint(ctx context.Context, lat, lon float64) (traffic.FlowSegment, error) {
	if p.apiKey == "" {
		return traffic.FlowSegment{}, fmt.Errorf("tomtom api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("point", fmt.Sprintf("%f,%f", lat, lon))
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return traffic.FlowSegment{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		FlowSegmentData traffic.FlowSegment `json:"flowSegmentData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return traffic.FlowSegment{}, fmt.Errorf("decoding flow segment: %w", err)
	}

	return payload.FlowSegmentData, nil
}
