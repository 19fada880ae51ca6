// Package attach persists relayed message attachments on local disk
// and serves their bytes back as platform file handles.
package attach

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/platform"
)

// Store writes attachments under a local directory, one subdirectory
// per attachment ID, and derives public URLs under the configured base.
type Store struct {
	dir     string
	baseURL string
	httpc   *http.Client
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	Dir        string
	BaseURL    string
	HTTPClient *http.Client // optional; defaults to a client with a 30s timeout
}

// NewStore creates a Store with the given options. The directory is
// created if it does not exist.
func NewStore(opts StoreOpts) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("attach: dir is required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("attach: base url is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("attach: create dir %s: %w", opts.Dir, err)
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Store{
		dir:     opts.Dir,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		httpc:   httpc,
	}, nil
}

// SaveAttachment stores the attachment's bytes on disk and returns the
// public URL they will be served under. Saving the same attachment
// twice overwrites in place and returns the same URL.
func (s *Store) SaveAttachment(ctx context.Context, att platform.Attachment) (string, error) {
	data, err := s.bytes(ctx, att)
	if err != nil {
		return "", err
	}

	name := filepath.Base(att.Name)
	dir := filepath.Join(s.dir, att.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("attach: create dir for %s: %w", att.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("attach: write %s: %w", att.ID, err)
	}
	return s.URL(att.ID, name), nil
}

// ToPlatformFile materializes the attachment as an outgoing file handle.
func (s *Store) ToPlatformFile(ctx context.Context, att platform.Attachment) (platform.File, error) {
	data, err := s.bytes(ctx, att)
	if err != nil {
		return platform.File{}, err
	}
	return platform.File{
		Name: filepath.Base(att.Name),
		Data: data,
	}, nil
}

// URL returns the public URL for a stored attachment.
func (s *Store) URL(id, name string) string {
	return s.baseURL + "/attachments/" + url.PathEscape(id) + "/" + url.PathEscape(name)
}

// bytes returns the attachment content, downloading it when the
// platform handed us only a URL.
func (s *Store) bytes(ctx context.Context, att platform.Attachment) ([]byte, error) {
	if att.Data != nil {
		return att.Data, nil
	}
	if att.URL == "" {
		return nil, fmt.Errorf("attach: attachment %s has neither data nor url", att.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("attach: build request for %s: %w", att.ID, err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attach: download %s: %w", att.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attach: download %s: unexpected status %d", att.ID, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("attach: read body of %s: %w", att.ID, err)
	}
	return data, nil
}
