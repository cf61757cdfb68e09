package core

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/charset"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

const testSchema = "core_test_people"

func TestMain(m *testing.M) {
	rules.Register(rules.Schema{
		Key:   testSchema,
		Group: "Test",
		Label: "People",
		Rules: []validation.FieldRule{
			{Name: "name", Required: true},
			{Name: "age", Type: validation.TypeNumber},
		},
	})
	os.Exit(m.Run())
}

// fakeHistory is an in-memory HistoryStore.
type fakeHistory struct {
	mu        sync.Mutex
	runs      []store.Run
	recordErr error
	pruned    []time.Time
}

func (f *fakeHistory) Record(_ context.Context, run *store.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	run.CreatedAt = time.Now()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.runs) {
		limit = len(f.runs)
	}
	return append([]store.Run(nil), f.runs[:limit]...), nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (*store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.runs {
		if f.runs[i].ID == id {
			r := f.runs[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeHistory) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, olderThan)
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Preview: config.PreviewConfig{
			MaxFileSize:   1024,
			MaxRows:       2,
			MaxRowsLimit:  3,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
		},
		Fetch: config.FetchConfig{
			Enabled: true,
			Timeout: time.Second,
		},
	}
}

func TestService_Preview(t *testing.T) {
	hist := &fakeHistory{}
	svc := NewService(testConfig(), WithHistory(hist))

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	ctx = ContextWithUserAgent(ctx, "test-agent")

	resp, err := svc.Preview(ctx, PreviewRequest{
		FileName: "people.csv",
		Schema:   testSchema,
		Data:     []byte("name,age\nAlice,30\nBob,x\nCarol,40\n"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "people.csv", resp.FileName)
	assert.Equal(t, testSchema, resp.Schema)
	assert.Len(t, resp.Rows, 2, "configured default page size")
	assert.Equal(t, 3, resp.TotalRows)
	assert.True(t, resp.HasMore)
	require.NotNil(t, resp.Validation)
	assert.False(t, resp.Validation.Valid)

	require.Len(t, hist.runs, 1)
	run := hist.runs[0]
	assert.Equal(t, resp.ID, run.ID)
	assert.Equal(t, SourceUpload, run.Source)
	assert.Equal(t, "utf-8", run.Encoding)
	assert.Equal(t, 3, run.TotalRows)
	assert.Equal(t, 2, run.ReturnedRows)
	assert.Equal(t, 2, run.TotalColumns)
	require.NotNil(t, run.Valid)
	assert.False(t, *run.Valid)
	assert.Equal(t, 1, run.ErrorRows)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Equal(t, "10.0.0.7", run.ClientIP)
	assert.Equal(t, "test-agent", run.UserAgent)
}

func TestService_PreviewWithoutSchema(t *testing.T) {
	hist := &fakeHistory{}
	svc := NewService(testConfig(), WithHistory(hist))

	resp, err := svc.Preview(context.Background(), PreviewRequest{
		FileName: "any.csv",
		Data:     []byte("a,b\n1,2\n"),
		Source:   SourceCLI,
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Validation)
	require.Len(t, hist.runs, 1)
	assert.Nil(t, hist.runs[0].Valid)
	assert.Equal(t, SourceCLI, hist.runs[0].Source)
}

func TestService_PreviewErrors(t *testing.T) {
	hist := &fakeHistory{}
	svc := NewService(testConfig(), WithHistory(hist))
	ctx := context.Background()

	t.Run("too large", func(t *testing.T) {
		_, err := svc.Preview(ctx, PreviewRequest{Data: make([]byte, 1025)})
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("size limit is inclusive", func(t *testing.T) {
		data := append([]byte("a\n"), make([]byte, 1022)...)
		for i := 2; i < len(data); i++ {
			data[i] = 'x'
		}
		_, err := svc.Preview(ctx, PreviewRequest{Data: data})
		assert.NoError(t, err)
	})

	t.Run("unknown schema", func(t *testing.T) {
		_, err := svc.Preview(ctx, PreviewRequest{Schema: "nope", Data: []byte("a\n1\n")})
		assert.ErrorIs(t, err, rules.ErrUnknownSchema)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := svc.Preview(ctx, PreviewRequest{Data: nil})
		assert.Error(t, err)
		assert.Equal(t, "FILE005", MapError(err).Code)
	})

	hist.mu.Lock()
	defer hist.mu.Unlock()
	assert.Len(t, hist.runs, 1, "only the successful preview is recorded")
}

func TestService_PreviewBusy(t *testing.T) {
	svc := NewService(testConfig())
	require.NoError(t, svc.limiter.Acquire(context.Background()))
	require.NoError(t, svc.limiter.Acquire(context.Background()))
	defer func() {
		svc.limiter.Release()
		svc.limiter.Release()
	}()

	_, err := svc.Preview(context.Background(), PreviewRequest{Data: []byte("a\n1\n")})
	assert.ErrorIs(t, err, ErrTooManyPreviews)
	assert.Equal(t, int64(1), svc.LimiterStatus().Denied)
}

func TestService_WithDetector(t *testing.T) {
	text := "氏名,部署\n山田太郎,開発部\n"
	data, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	req := PreviewRequest{FileName: "staff.csv", Data: data}

	t.Run("default order", func(t *testing.T) {
		resp, err := NewService(testConfig()).Preview(context.Background(), req)
		require.NoError(t, err)
		assert.NotEqual(t, charset.ShiftJIS, resp.Encoding)
	})

	t.Run("shift_jis first", func(t *testing.T) {
		det := charset.NewDetector([]charset.Candidate{
			charset.MustCandidate(charset.UTF8),
			charset.MustCandidate(charset.ShiftJIS),
			charset.MustCandidate(charset.GBK),
		}, nil)
		svc := NewService(testConfig(), WithDetector(det))

		resp, err := svc.Preview(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, charset.ShiftJIS, resp.Encoding)
		assert.Equal(t, []string{"氏名", "部署"}, resp.Headers)
		assert.Equal(t, []string{"山田太郎", "開発部"}, resp.Rows[0])
	})
}

func TestService_RecordFailureIsNotFatal(t *testing.T) {
	hist := &fakeHistory{recordErr: errors.New("insert failed")}
	svc := NewService(testConfig(), WithHistory(hist))

	resp, err := svc.Preview(context.Background(), PreviewRequest{Data: []byte("a\n1\n")})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalRows)
}

func TestService_PageSize(t *testing.T) {
	svc := NewService(testConfig())

	tests := []struct {
		requested int
		want      int
	}{
		{0, 2},
		{-5, 2},
		{1, 1},
		{3, 3},
		{50, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.PageSize(tt.requested), "requested %d", tt.requested)
	}
}

func TestService_History(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewService(testConfig())
		assert.False(t, svc.HistoryEnabled())

		_, err := svc.History(context.Background(), 10)
		assert.ErrorIs(t, err, ErrHistoryDisabled)
		_, err = svc.HistoryRun(context.Background(), "x")
		assert.ErrorIs(t, err, ErrHistoryDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		hist := &fakeHistory{}
		svc := NewService(testConfig(), WithHistory(hist))
		assert.True(t, svc.HistoryEnabled())

		resp, err := svc.Preview(context.Background(), PreviewRequest{Data: []byte("a\n1\n")})
		require.NoError(t, err)

		runs, err := svc.History(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)

		run, err := svc.HistoryRun(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, run.ID)

		_, err = svc.HistoryRun(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestService_Schemas(t *testing.T) {
	svc := NewService(testConfig())

	s, err := svc.Schema(testSchema)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, s.Columns())

	var found bool
	for _, s := range svc.Schemas() {
		if s.Key == testSchema {
			found = true
		}
	}
	assert.True(t, found)
}

func TestService_StartHistoryPruner(t *testing.T) {
	hist := &fakeHistory{}
	svc := NewService(testConfig(), WithHistory(hist))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartHistoryPruner(ctx, RetentionConfig{RetentionDays: 7, Interval: 20 * time.Millisecond})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		hist.mu.Lock()
		defer hist.mu.Unlock()
		return len(hist.pruned) >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop after cancel")
	}

	hist.mu.Lock()
	cutoff := hist.pruned[0]
	hist.mu.Unlock()
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), cutoff, time.Minute)
}

func TestService_StartHistoryPruner_Disabled(t *testing.T) {
	svc := NewService(testConfig())

	done := make(chan struct{})
	go func() {
		svc.StartHistoryPruner(context.Background(), RetentionConfig{RetentionDays: 7, Interval: time.Millisecond})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner without history should return immediately")
	}
}

func TestService_WaitForPreviews(t *testing.T) {
	svc := NewService(testConfig())
	assert.NoError(t, svc.WaitForPreviews(context.Background()))
}
