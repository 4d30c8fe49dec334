package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udinmoInc/law/client/internal/types"
)

func withData(typ types.NotificationType, data map[string]string) types.Notification {
	raw, _ := json.Marshal(data)
	return types.Notification{ID: "n1", Type: typ, Data: raw}
}

func TestClassifyKnownTypes(t *testing.T) {
	cases := []struct {
		name string
		in   types.Notification
		want Rendered
	}{
		{
			name: "like",
			in:   withData(types.NotificationLike, map[string]string{"username": "ana", "post_id": "p1"}),
			want: Rendered{Title: "New Like", Body: "ana liked your post", Target: "/post/p1"},
		},
		{
			name: "comment",
			in:   withData(types.NotificationComment, map[string]string{"username": "ana", "post_id": "p2"}),
			want: Rendered{Title: "New Comment", Body: "ana commented on your post", Target: "/post/p2"},
		},
		{
			name: "follow",
			in:   withData(types.NotificationFollow, map[string]string{"username": "bo", "user_id": "u7"}),
			want: Rendered{Title: "New Follower", Body: "bo started following you", Target: "/profile/u7"},
		},
		{
			name: "mention",
			in:   withData(types.NotificationMention, map[string]string{"username": "cy"}),
			want: Rendered{Title: "New Mention", Body: "cy mentioned you in a post", Target: "#"},
		},
		{
			name: "group invite",
			in:   withData(types.NotificationGroupInvite, map[string]string{"group_name": "gophers"}),
			want: Rendered{Title: "Group Invitation", Body: "You've been invited to join gophers", Target: "/groups"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestClassifyUnknownTypeFallsBack(t *testing.T) {
	got := Classify(types.Notification{ID: "n1", Type: "poke"})
	assert.Equal(t, Rendered{Title: "Notification", Target: "#"}, got)
}

func TestClassifyMalformedDataStillRenders(t *testing.T) {
	n := types.Notification{ID: "n1", Type: types.NotificationLike, Data: json.RawMessage(`{`)}
	assert.Equal(t, "New Like", Classify(n).Title)
}
