package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/errs"
	"github.com/udinmoInc/law/client/internal/types"
)

func newTestGateway(handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	gw := New(srv.Client(), srv.URL, zerolog.Nop())
	return gw, srv
}

func TestGetPostNotFound(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := gw.GetPost(context.Background(), "p1")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertLikeConflict(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer srv.Close()

	err := gw.InsertLike(context.Background(), "p1", "u1")
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	err := gw.InsertLike(context.Background(), "p1", "u1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errs.IsTerminal(err) {
		t.Fatalf("5xx classified terminal: %v", err)
	}
}

func TestClientErrorIsTerminal(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer srv.Close()

	err := gw.InsertLike(context.Background(), "p1", "u1")
	if !errs.IsTerminal(err) {
		t.Fatalf("403 not classified terminal: %v", err)
	}
}

func TestListPostsQueryShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode([]types.Post{{ID: "p1"}})
	})
	defer srv.Close()

	posts, err := gw.ListPosts(context.Background(), types.FeedFilter{GroupID: "g1"}, 10)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if gotPath != "/rest/v1/posts" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotQuery["group_id"] != "eq.g1" {
		t.Fatalf("group filter = %q", gotQuery["group_id"])
	}
	if gotQuery["order"] != "created_at.desc" {
		t.Fatalf("order = %q", gotQuery["order"])
	}
	if gotQuery["limit"] != "10" {
		t.Fatalf("limit = %q", gotQuery["limit"])
	}
}

func TestViewerLikesBuildsInFilter(t *testing.T) {
	var gotQuery string
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("post_id")
		_ = json.NewEncoder(w).Encode([]types.Like{{PostID: "p2", UserID: "u1"}})
	})
	defer srv.Close()

	liked, err := gw.ViewerLikes(context.Background(), "u1", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("viewer likes: %v", err)
	}
	if gotQuery != "in.(p1,p2)" {
		t.Fatalf("post_id filter = %q", gotQuery)
	}
	if !liked["p2"] || liked["p1"] {
		t.Fatalf("liked map = %v", liked)
	}
}

func TestViewerLikesEmptyInputSkipsNetwork(t *testing.T) {
	called := false
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})
	defer srv.Close()

	liked, err := gw.ViewerLikes(context.Background(), "u1", nil)
	if err != nil || len(liked) != 0 {
		t.Fatalf("got %v, %v", liked, err)
	}
	if called {
		t.Fatalf("network call for empty input")
	}
}

func TestRequestIDHeaderAttached(t *testing.T) {
	var gotID string
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		_ = json.NewEncoder(w).Encode([]types.Post{})
	})
	defer srv.Close()

	if _, err := gw.ListPosts(context.Background(), types.FeedFilter{}, 5); err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if gotID == "" {
		t.Fatalf("request id header missing")
	}
}

func TestUploadImageCarriesRequestID(t *testing.T) {
	var gotID, gotMime string
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		gotMime = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/a.png"}`))
	})
	defer srv.Close()

	url, err := gw.UploadImage(context.Background(), []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/a.png" {
		t.Fatalf("url = %q", url)
	}
	if gotID == "" {
		t.Fatalf("request id header missing")
	}
	if gotMime != "image/png" {
		t.Fatalf("content type = %q", gotMime)
	}
}

func TestMarkNotificationReadPatches(t *testing.T) {
	var gotMethod string
	var gotBody map[string]bool
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	if err := gw.MarkNotificationRead(context.Background(), "n1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %s", gotMethod)
	}
	if !gotBody["is_read"] {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestCount(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("select") != "count" {
			t.Errorf("select = %q", r.URL.Query().Get("select"))
		}
		_, _ = w.Write([]byte(`[{"count":7}]`))
	})
	defer srv.Close()

	n, err := gw.Count(context.Background(), "likes", nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 7 {
		t.Fatalf("count = %d", n)
	}
}

func TestValidationShortCircuits(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("network call for invalid input")
	})
	defer srv.Close()

	if err := gw.InsertLike(context.Background(), "", "u1"); !types.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
