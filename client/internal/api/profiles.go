package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// GetProfile fetches a profile by user id.
func (g *Gateway) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return nil, err
	}
	var profile types.Profile
	u := fmt.Sprintf("%s/rest/v1/profiles/%s", g.baseURL, userID)
	if err := g.get(ctx, u, &profile, "get profile"); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByUsername resolves a username to a profile. Returns
// types.ErrNotFound when no such user exists.
func (g *Gateway) ProfileByUsername(ctx context.Context, username string) (*types.Profile, error) {
	if err := types.ValidateIDPresent(username, "username"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("username", "eq."+username)
	q.Set("limit", "1")

	var profiles []types.Profile
	if err := g.get(ctx, g.restURL("profiles", q), &profiles, "profile by username"); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, types.ErrNotFound
	}
	return &profiles[0], nil
}
