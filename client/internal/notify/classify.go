package notify

import (
	"encoding/json"
	"fmt"

	"github.com/udinmoInc/law/client/internal/types"
)

// Rendered is the display form of a notification.
type Rendered struct {
	Title  string
	Body   string
	Target string
}

// Classify maps a notification to its display form. Total over all
// inputs: unknown types and malformed payloads degrade to a generic
// rendering, never an error.
func Classify(n types.Notification) Rendered {
	var data types.NotificationData
	if len(n.Data) > 0 {
		// Best effort; absent or malformed fields stay zero.
		_ = json.Unmarshal(n.Data, &data)
	}

	switch n.Type {
	case types.NotificationLike:
		return Rendered{
			Title:  "New Like",
			Body:   fmt.Sprintf("%s liked your post", data.Username),
			Target: "/post/" + data.PostID,
		}
	case types.NotificationComment:
		return Rendered{
			Title:  "New Comment",
			Body:   fmt.Sprintf("%s commented on your post", data.Username),
			Target: "/post/" + data.PostID,
		}
	case types.NotificationFollow:
		return Rendered{
			Title:  "New Follower",
			Body:   fmt.Sprintf("%s started following you", data.Username),
			Target: "/profile/" + data.UserID,
		}
	case types.NotificationMention:
		return Rendered{
			Title:  "New Mention",
			Body:   fmt.Sprintf("%s mentioned you in a post", data.Username),
			Target: "#",
		}
	case types.NotificationGroupInvite:
		return Rendered{
			Title:  "Group Invitation",
			Body:   fmt.Sprintf("You've been invited to join %s", data.GroupName),
			Target: "/groups",
		}
	default:
		return Rendered{Title: "Notification", Target: "#"}
	}
}
