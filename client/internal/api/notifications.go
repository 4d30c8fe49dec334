package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListNotifications fetches the recipient's notifications newest
// first, capped at limit.
func (g *Gateway) ListNotifications(ctx context.Context, recipientID string, limit int) ([]types.Notification, error) {
	if err := types.ValidateIDPresent(recipientID, "recipientId"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("user_id", "eq."+recipientID)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	var notifications []types.Notification
	if err := g.get(ctx, g.restURL("notifications", q), &notifications, "list notifications"); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips is_read on a single notification.
func (g *Gateway) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := types.ValidateIDPresent(notificationID, "notificationId"); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/rest/v1/notifications/%s", g.baseURL, notificationID)
	return g.patch(ctx, u, map[string]bool{"is_read": true}, nil, "mark notification read")
}
