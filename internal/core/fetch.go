package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

var (
	// ErrFetchDisabled is returned by PreviewURL when remote fetching is off.
	ErrFetchDisabled = errors.New("remote fetch disabled")

	// ErrFetchURL is returned for URLs that are malformed or not http(s).
	ErrFetchURL = errors.New("invalid fetch url")

	// ErrFetchHost is returned when the URL host is not on the allow list.
	ErrFetchHost = errors.New("fetch host not allowed")

	// ErrFetchStatus is returned when the remote server answers with a non-200 status.
	ErrFetchStatus = errors.New("fetch returned unexpected status")
)

// PreviewURL downloads rawURL with a single GET and previews the body.
// The download is bounded by the fetch timeout and the preview size limit.
func (s *Service) PreviewURL(ctx context.Context, rawURL, schema string, maxRows int) (*PreviewResponse, error) {
	if !s.cfg.Fetch.Enabled {
		return nil, ErrFetchDisabled
	}

	u, err := s.checkFetchURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := s.download(ctx, u)
	if err != nil {
		return nil, err
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}

	return s.Preview(ctx, PreviewRequest{
		FileName: name,
		Schema:   schema,
		Data:     data,
		MaxRows:  maxRows,
		Source:   SourceFetch,
	})
}

func (s *Service) checkFetchURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrFetchURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrFetchURL)
	}

	allowed := s.cfg.Fetch.AllowedHosts
	if len(allowed) == 0 {
		return u, nil
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range allowed {
		if strings.EqualFold(h, host) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFetchHost, host)
}

func (s *Service) download(ctx context.Context, u *url.URL) ([]byte, error) {
	if t := s.cfg.Fetch.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}

	limit := s.cfg.Preview.MaxFileSize
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: remote file exceeds limit of %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}
