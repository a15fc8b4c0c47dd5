// Package waysdk is the HTTP client for the Wheelway API. It exposes one API
// group per record collection plus the health probe used by connectivity
// monitoring. All mutations are keyed by the record's durable id so retries
// are idempotent on the server side.
package waysdk

import (
	"context"
	"time"

	"github.com/imroc/req/v3"

	"github.com/wheelway/wheelway/internal/version"
)

const (
	HeaderUserAgent = "User-Agent"
	HeaderAuth      = "Authorization"

	v1Health = "/api/v1/health"

	defaultTimeout = 30 * time.Second
)

// WaySDK is the main client for interacting with the Wheelway API
type WaySDK struct {
	client   *req.Client
	baseURL  string
	Profiles *ProfilesAPI
	Trips    *TripsAPI
	Ratings  *RatingsAPI
}

// New creates a new WaySDK client
func New(baseURL string) (*WaySDK, error) {
	if baseURL == "" {
		return nil, ErrNoServerURL
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetUserAgent("Wheelway/" + version.Version).
		SetCommonErrorResult(&APIError{})

	return &WaySDK{
		client:   client,
		baseURL:  baseURL,
		Profiles: newProfilesAPI(client),
		Trips:    newTripsAPI(client),
		Ratings:  newRatingsAPI(client),
	}, nil
}

// BaseURL returns the server url this client talks to
func (s *WaySDK) BaseURL() string {
	return s.baseURL
}

// SetAuthToken sets the bearer token for all subsequent API calls
func (s *WaySDK) SetAuthToken(token string) {
	s.client.SetCommonBearerAuthToken(token)
}

// Health checks whether the server is reachable. Used by the connectivity
// monitor, so it carries its own short timeout regardless of the client default.
func (s *WaySDK) Health(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Head(v1Health)

	return handleAPIError(resp, err, "health")
}
