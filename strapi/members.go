package strapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const membersPath = "/api/members"

// FindMemberByEmail looks up a member by its email login identifier.
// Returns ErrNotFound when no member matches.
func (c *Client) FindMemberByEmail(ctx context.Context, email string) (*Member, error) {
	query := url.Values{}
	query.Set("filters[email][$eq]", email)

	var resp listResponse[Member]
	if err := c.doJSON(ctx, http.MethodGet, membersPath, query, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNotFound
	}

	return &resp.Data[0], nil
}

// GetMember fetches a member by document id, populating the profile image
// and both projects' pictures so the session endpoint can return them.
func (c *Client) GetMember(ctx context.Context, documentID string) (*Member, error) {
	query := url.Values{}
	query.Set("populate[profileImage]", "true")
	query.Set("populate[project1][populate]", "pictures")
	query.Set("populate[project2][populate]", "pictures")

	var resp itemResponse[Member]
	err := c.doJSON(ctx, http.MethodGet, membersPath+"/"+url.PathEscape(documentID), query, nil, &resp)
	if err != nil {
		if se, ok := AsError(err); ok && se.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &resp.Data, nil
}

// ResolveInternalID maps a member's document id to the internal numeric id
// that the update endpoint requires. Every write path goes through this one
// lookup so the duality never leaks into handler logic.
func (c *Client) ResolveInternalID(ctx context.Context, documentID string) (int, error) {
	query := url.Values{}
	query.Set("filters[documentId][$eq]", documentID)
	query.Set("fields[0]", "id")

	var resp listResponse[Member]
	if err := c.doJSON(ctx, http.MethodGet, membersPath, query, nil, &resp); err != nil {
		return 0, err
	}
	if len(resp.Data) == 0 {
		return 0, ErrNotFound
	}

	return resp.Data[0].ID, nil
}

// UpdateMember applies the given field patch to the member with the internal
// numeric id. The patch is sent as-is; callers assemble only the fields that
// should change so absent fields keep their current values.
func (c *Client) UpdateMember(ctx context.Context, internalID int, fields map[string]any) error {
	body := map[string]any{"data": fields}
	path := fmt.Sprintf("%s/%d", membersPath, internalID)
	return c.doJSON(ctx, http.MethodPut, path, nil, body, nil)
}

// TouchLastLogin records a login timestamp on the member record. Callers
// treat a failure here as soft: not being able to note a login must never
// block the login itself.
func (c *Client) TouchLastLogin(ctx context.Context, documentID string) error {
	id, err := c.ResolveInternalID(ctx, documentID)
	if err != nil {
		return err
	}
	return c.UpdateMember(ctx, id, map[string]any{
		"lastLoginAt": time.Now().UTC().Format(time.RFC3339),
	})
}
