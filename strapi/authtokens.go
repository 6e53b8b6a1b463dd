package strapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const authTokensPath = "/api/auth-tokens"

// FindAuthTokensByEmail returns every auth token record for the email. The
// storage layer does not enforce uniqueness on email, so callers get the
// full list; the invariant of at most one active magic link is maintained by
// deleting prior rows before creating a new one.
func (c *Client) FindAuthTokensByEmail(ctx context.Context, email string) ([]AuthToken, error) {
	query := url.Values{}
	query.Set("filters[email][$eq]", email)

	var resp listResponse[AuthToken]
	if err := c.doJSON(ctx, http.MethodGet, authTokensPath, query, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// CreateAuthToken creates a new auth token record.
func (c *Client) CreateAuthToken(ctx context.Context, input AuthTokenInput) error {
	body := map[string]any{"data": input}
	return c.doJSON(ctx, http.MethodPost, authTokensPath, nil, body, nil)
}

// UpdateAuthToken applies a field patch to the auth token record with the
// given internal numeric id. Nil values in the patch null fields out, which
// is how a redeemed magic link is burned.
func (c *Client) UpdateAuthToken(ctx context.Context, internalID int, fields map[string]any) error {
	body := map[string]any{"data": fields}
	path := fmt.Sprintf("%s/%d", authTokensPath, internalID)
	return c.doJSON(ctx, http.MethodPut, path, nil, body, nil)
}

// DeleteAuthToken removes the auth token record with the given internal numeric id.
func (c *Client) DeleteAuthToken(ctx context.Context, internalID int) error {
	path := fmt.Sprintf("%s/%d", authTokensPath, internalID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
