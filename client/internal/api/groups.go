package api

import (
	"context"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListGroupsForUser fetches the groups userID is a member of. Drives
// the single-group feed filter.
func (g *Gateway) ListGroupsForUser(ctx context.Context, userID string) ([]types.Group, error) {
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "groups(*)")
	q.Set("user_id", "eq."+userID)

	var rows []struct {
		Group types.Group `json:"groups"`
	}
	if err := g.get(ctx, g.restURL("group_members", q), &rows, "list groups"); err != nil {
		return nil, err
	}
	groups := make([]types.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.Group)
	}
	return groups, nil
}
