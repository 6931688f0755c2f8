package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
	"github.com/LennySnaider/pymebot-core/internal/pkg/env"
)

const defaultTimeout = 10 * time.Second

// Client is the remote source of truth for tenant permissions. The engine
// only branches on not-found, forbidden and generic failure; everything
// else is the transport's business.
type Client interface {
	GetTenantPermissions(ctx context.Context, tenantID, role, scope string) (*PermissionsResponse, error)
	UpdateTenantPermissions(ctx context.Context, tenantID string, resp *PermissionsResponse) error
}

// HTTPClient talks to the permission authority over HTTP/JSON.
type HTTPClient struct {
	BaseURL      string
	ServiceToken string

	HTTP *http.Client
}

// NewHTTPClientFromEnv builds a client from AUTHORITY_* environment values.
func NewHTTPClientFromEnv() *HTTPClient {
	return &HTTPClient{
		BaseURL:      strings.TrimRight(env.GetEnv("AUTHORITY_BASE_URL", "http://localhost:8090"), "/"),
		ServiceToken: strings.TrimSpace(env.GetEnv("AUTHORITY_SERVICE_TOKEN", "")),
		HTTP: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// GetTenantPermissions fetches the permission snapshot for a tenant,
// optionally filtered by role and vertical scope.
func (c *HTTPClient) GetTenantPermissions(ctx context.Context, tenantID, role, scope string) (*PermissionsResponse, error) {
	endpoint := fmt.Sprintf("%s/tenants/%s/permissions", c.BaseURL, url.PathEscape(tenantID))
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, apperrors.Transport("get tenant permissions", err)
	}
	q := u.Query()
	if role != "" {
		q.Set("role", role)
	}
	if scope != "" {
		q.Set("scope", scope)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperrors.Transport("get tenant permissions", err)
	}
	body, err := c.do(req, "get tenant permissions", tenantID)
	if err != nil {
		return nil, err
	}

	var resp PermissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Transport("decode tenant permissions", err)
	}
	return &resp, nil
}

// UpdateTenantPermissions writes a full permission snapshot for a tenant.
func (c *HTTPClient) UpdateTenantPermissions(ctx context.Context, tenantID string, resp *PermissionsResponse) error {
	endpoint := fmt.Sprintf("%s/tenants/%s/permissions", c.BaseURL, url.PathEscape(tenantID))
	return c.put(ctx, endpoint, resp, "update tenant permissions", tenantID)
}

func (c *HTTPClient) put(ctx context.Context, endpoint string, payload any, op, tenantID string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Transport(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(raw))
	if err != nil {
		return apperrors.Transport(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, op, tenantID)
	return err
}

// do executes the request and maps the authority's status codes onto the
// engine's error taxonomy.
func (c *HTTPClient) do(req *http.Request, op, tenantID string) ([]byte, error) {
	if c.ServiceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.ServiceToken)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transport(op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, apperrors.Transport(op, err)
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return body, nil
	case res.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("tenant", tenantID)
	case res.StatusCode == http.StatusForbidden:
		return nil, apperrors.AccessDenied(tenantID, op)
	default:
		return nil, apperrors.Transport(op, fmt.Errorf("authority returned status %d", res.StatusCode))
	}
}
