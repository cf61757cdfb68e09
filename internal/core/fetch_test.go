package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFetchServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/exports/people.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("name,age\nAlice,30\nBob,31\n"))
	})
	mux.HandleFunc("/big.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a\n" + strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/slow.csv", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPreviewURL(t *testing.T) {
	srv := newFetchServer(t)
	hist := &fakeHistory{}
	svc := NewService(testConfig(), WithHistory(hist), WithHTTPClient(srv.Client()))

	resp, err := svc.PreviewURL(context.Background(), srv.URL+"/exports/people.csv", testSchema, 10)
	require.NoError(t, err)

	assert.Equal(t, "people.csv", resp.FileName)
	assert.Equal(t, 2, resp.TotalRows)
	assert.Len(t, resp.Rows, 2)
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Valid)

	require.Len(t, hist.runs, 1)
	assert.Equal(t, SourceFetch, hist.runs[0].Source)
}

func TestPreviewURL_Errors(t *testing.T) {
	srv := newFetchServer(t)
	svc := NewService(testConfig(), WithHTTPClient(srv.Client()))
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"bad scheme", "ftp://example.com/a.csv", ErrFetchURL},
		{"no host", "http:///a.csv", ErrFetchURL},
		{"not found", srv.URL + "/missing.csv", ErrFetchStatus},
		{"too large", srv.URL + "/big.csv", ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PreviewURL(ctx, tt.url, "", 0)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPreviewURL_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Fetch.Enabled = false
	svc := NewService(cfg)

	_, err := svc.PreviewURL(context.Background(), "http://example.com/a.csv", "", 0)
	assert.ErrorIs(t, err, ErrFetchDisabled)
}

func TestPreviewURL_AllowedHosts(t *testing.T) {
	srv := newFetchServer(t)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	t.Run("listed host passes", func(t *testing.T) {
		cfg := testConfig()
		cfg.Fetch.AllowedHosts = []string{"files.example", strings.ToUpper(u.Hostname())}
		svc := NewService(cfg, WithHTTPClient(srv.Client()))

		_, err := svc.PreviewURL(context.Background(), srv.URL+"/exports/people.csv", "", 0)
		assert.NoError(t, err)
	})

	t.Run("unlisted host rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.Fetch.AllowedHosts = []string{"files.example"}
		svc := NewService(cfg, WithHTTPClient(srv.Client()))

		_, err := svc.PreviewURL(context.Background(), srv.URL+"/exports/people.csv", "", 0)
		assert.ErrorIs(t, err, ErrFetchHost)
	})
}

func TestPreviewURL_Timeout(t *testing.T) {
	srv := newFetchServer(t)
	cfg := testConfig()
	cfg.Fetch.Timeout = 50 * time.Millisecond
	svc := NewService(cfg, WithHTTPClient(srv.Client()))

	start := time.Now()
	_, err := svc.PreviewURL(context.Background(), srv.URL+"/slow.csv", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
