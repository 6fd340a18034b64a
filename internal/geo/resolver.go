package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hivetrace/internal/types"
)

// DefaultTimeout bounds one resolver call so a slow upstream cannot stall
// a whole report.
const DefaultTimeout = 2 * time.Second

// Resolver looks up coarse location metadata for an IP address.
// Implementations return an Unknown record rather than an error when the
// upstream simply has no answer; errors are reserved for transport failures.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (types.GeoRecord, error)
}

// UnknownRecord is the terminal value for IPs nothing could resolve.
func UnknownRecord(ip string) types.GeoRecord {
	return types.GeoRecord{IP: ip, Country: "Unknown"}
}

// IPAPIResolver queries ip-api.com (the primary resolver).
type IPAPIResolver struct {
	baseURL string
	client  *http.Client
}

// NewIPAPIResolver creates the primary resolver. baseURL defaults to the
// public ip-api.com endpoint.
func NewIPAPIResolver(baseURL string, timeout time.Duration) *IPAPIResolver {
	if baseURL == "" {
		baseURL = "http://ip-api.com"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IPAPIResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
	Query      string `json:"query"`
}

// Resolve implements the Resolver interface.
func (r *IPAPIResolver) Resolve(ctx context.Context, ip string) (types.GeoRecord, error) {
	url := fmt.Sprintf("%s/json/%s?fields=status,country,regionName,city,isp,query", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UnknownRecord(ip), err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return UnknownRecord(ip), fmt.Errorf("ip-api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownRecord(ip), fmt.Errorf("ip-api returned status: %s", resp.Status)
	}

	var data ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return UnknownRecord(ip), fmt.Errorf("decode ip-api response: %w", err)
	}
	if data.Status != "success" || data.Country == "" {
		return UnknownRecord(ip), nil
	}

	return types.GeoRecord{
		IP:      ip,
		Country: data.Country,
		Region:  data.RegionName,
		City:    data.City,
		ISP:     data.ISP,
	}, nil
}

// IPWhoisResolver queries ipwho.is (the fallback resolver).
type IPWhoisResolver struct {
	baseURL string
	client  *http.Client
}

// NewIPWhoisResolver creates the fallback resolver.
func NewIPWhoisResolver(baseURL string, timeout time.Duration) *IPWhoisResolver {
	if baseURL == "" {
		baseURL = "https://ipwho.is"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IPWhoisResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ipWhoisResponse struct {
	Success    bool   `json:"success"`
	Country    string `json:"country"`
	Region     string `json:"region"`
	City       string `json:"city"`
	Connection struct {
		ISP string `json:"isp"`
	} `json:"connection"`
}

// Resolve implements the Resolver interface.
func (r *IPWhoisResolver) Resolve(ctx context.Context, ip string) (types.GeoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+ip, nil)
	if err != nil {
		return UnknownRecord(ip), err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return UnknownRecord(ip), fmt.Errorf("ipwhois request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownRecord(ip), fmt.Errorf("ipwhois returned status: %s", resp.Status)
	}

	var data ipWhoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return UnknownRecord(ip), fmt.Errorf("decode ipwhois response: %w", err)
	}
	if !data.Success || data.Country == "" {
		return UnknownRecord(ip), nil
	}

	return types.GeoRecord{
		IP:      ip,
		Country: data.Country,
		Region:  data.Region,
		City:    data.City,
		ISP:     data.Connection.ISP,
	}, nil
}

// Chain tries resolvers in order and keeps the first usable answer.
// When every resolver fails or answers Unknown, the chain terminates in an
// Unknown record; it never returns an error to callers.
type Chain struct {
	resolvers []Resolver
}

// NewChain builds a fallback chain.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Resolve implements the Resolver interface.
func (c *Chain) Resolve(ctx context.Context, ip string) (types.GeoRecord, error) {
	for _, r := range c.resolvers {
		rec, err := r.Resolve(ctx, ip)
		if err == nil && !rec.Unknown() {
			return rec, nil
		}
	}
	return UnknownRecord(ip), nil
}
