package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Upload stores data at bucket/path. Existing objects are not overwritten.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := c.admin().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetHeader("Cache-Control", "max-age=3600").
		SetBody(data).
		SetError(&errorBody{}).
		Post(objectPath("/storage/v1/object", bucket, path))
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	return nil
}

// PublicURL is the unauthenticated URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + objectPath("/storage/v1/object/public", bucket, path)
}

// Remove deletes objects from bucket.
func (c *Client) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	resp, err := c.admin().
		SetContext(ctx).
		SetBody(map[string][]string{"prefixes": paths}).
		SetError(&errorBody{}).
		Delete("/storage/v1/object/" + url.PathEscape(bucket))
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("storage remove: %w", err)
	}
	return nil
}

func objectPath(prefix, bucket, path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return prefix + "/" + url.PathEscape(bucket) + "/" + strings.Join(parts, "/")
}
