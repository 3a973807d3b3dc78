package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

const (
	userEndpoint         = "/auth/v1/user"
	defaultLookupTimeout = 10 * time.Second
	maxIdentityBytes     = 64 << 10
)

// RemoteConfig configures lookups against the identity service.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RemoteProvider resolves tokens by calling the identity service's user endpoint.
type RemoteProvider struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

var _ IdentityProvider = (*RemoteProvider)(nil)

// NewRemoteProvider creates a RemoteProvider.
func NewRemoteProvider(cfg RemoteConfig) (*RemoteProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLookupTimeout
	}

	return &RemoteProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type identityResponse struct {
	ID string `json:"id"`
}

// Resolve fetches the user the token belongs to.
func (p *RemoteProvider) Resolve(ctx context.Context, token string) (domain.UserID, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+userEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError(domain.ProviderIdentity, 0, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", Reject(ReasonRejected, fmt.Errorf("identity service returned %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return "", domain.NewUpstreamError(domain.ProviderIdentity, resp.StatusCode, detail, nil)
	}

	var identity identityResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityBytes)).Decode(&identity); err != nil {
		return "", domain.NewUpstreamError(domain.ProviderIdentity, resp.StatusCode, "invalid identity response", err)
	}
	if strings.TrimSpace(identity.ID) == "" {
		return "", domain.NewUpstreamError(domain.ProviderIdentity, resp.StatusCode, "identity response has no id", nil)
	}

	return domain.UserID(identity.ID), nil
}

// Name returns "remote".
func (p *RemoteProvider) Name() string { return "remote" }
