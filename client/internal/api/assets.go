package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/udinmoInc/law/client/internal/errs"
	"github.com/udinmoInc/law/client/internal/types"
)

// UploadImage pushes raw image bytes to the asset service and returns
// the public URL. The SDK treats the URL as opaque; it is only ever
// stored on a post.
func (g *Gateway) UploadImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", &types.ValidationError{Field: "file", Reason: "must not be empty"}
	}
	if mimeType == "" {
		return "", &types.ValidationError{Field: "mimeType", Reason: "must not be empty"}
	}

	u := fmt.Sprintf("%s/storage/v1/upload", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := g.http.Do(req)
	if err != nil {
		return "", errs.FromNetwork("upload image", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errs.FromStatus(resp.StatusCode, "upload image")
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload image: decode response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload image: backend returned no url")
	}
	return out.URL, nil
}
