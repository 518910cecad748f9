package sweeper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docgateway/internal/config"
	"docgateway/internal/storage"
	storeMocks "docgateway/internal/storage/mocks"
)

var testPolicy = config.RetentionConfig{MaxFileAgeMs: int64(time.Hour / time.Millisecond), SweepIntervalMs: 10}

func seed(t *testing.T, d *storage.Disk, name string, age time.Duration) {
	t.Helper()
	_, err := d.Write(context.Background(), name, strings.NewReader("x"), storage.WriteOptions{})
	require.NoError(t, err)
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(d.Path(name), mt, mt))
}

func names(t *testing.T, d *storage.Disk) []string {
	t.Helper()
	objs, err := d.List(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name)
	}
	return out
}

func TestSweep_Disk(t *testing.T) {
	ctx := context.Background()
	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	seed(t, d, "old-1.pdf", 2*time.Hour)
	seed(t, d, "old-2.png", 61*time.Minute)
	seed(t, d, "young.pdf", 5*time.Minute)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	sw := New(d, testPolicy, nil, m)

	st := sw.Sweep(ctx)

	assert.Equal(t, Stats{Scanned: 3, Deleted: 2}, st)
	assert.ElementsMatch(t, []string{"young.pdf"}, names(t, d))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.deleted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.current))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.errors))

	t.Run("second sweep is a no-op", func(t *testing.T) {
		st := sw.Sweep(ctx)
		assert.Equal(t, Stats{Scanned: 1}, st)
	})
}

func TestSweep_EmptyStore(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	m, _ := NewMetrics(nil)
	sw := New(d, testPolicy, nil, m)

	st := sw.Sweep(context.Background())

	assert.Equal(t, Stats{}, st)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.errors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs))
}

func TestSweep_MissingDirectoryIsNothingToSweep(t *testing.T) {
	root := filepath.Join(t.TempDir(), "temp")
	d, err := storage.NewDisk(root)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(root))
	m, _ := NewMetrics(nil)
	sw := New(d, testPolicy, nil, m)

	st := sw.Sweep(context.Background())

	assert.Equal(t, Stats{}, st)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors))
}

func TestSweep_AgeBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	mStore := new(storeMocks.MockStore)
	mStore.On("List", ctx).Return([]storage.Object{
		{Name: "exact", LastModified: now.Add(-time.Hour)},
		{Name: "over", LastModified: now.Add(-time.Hour - time.Millisecond)},
	}, nil)
	mStore.On("Delete", ctx, "over").Return(nil).Once()

	sw := New(mStore, testPolicy, nil, nil)
	sw.now = func() time.Time { return now }

	st := sw.Sweep(ctx)

	assert.Equal(t, Stats{Scanned: 2, Deleted: 1}, st)
	mStore.AssertExpectations(t)
	mStore.AssertNotCalled(t, "Delete", ctx, "exact")
}

func TestSweep_EntryFailuresDoNotAbort(t *testing.T) {
	ctx := context.Background()
	old := time.Now().Add(-3 * time.Hour)

	mStore := new(storeMocks.MockStore)
	mStore.On("List", ctx).Return([]storage.Object{
		{Name: "unreadable", StatErr: os.ErrPermission},
		{Name: "locked", LastModified: old},
		{Name: "stale", LastModified: old},
		{Name: "already-gone", LastModified: old},
	}, nil)
	mStore.On("Delete", ctx, "locked").Return(errors.New("device busy")).Once()
	mStore.On("Delete", ctx, "stale").Return(nil).Once()
	// A concurrent pipeline delete won the race; the store reports success.
	mStore.On("Delete", ctx, "already-gone").Return(nil).Once()

	m, _ := NewMetrics(nil)
	sw := New(mStore, testPolicy, nil, m)

	st := sw.Sweep(ctx)

	assert.Equal(t, Stats{Scanned: 4, Deleted: 2, Failed: 2}, st)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.errors))
	mStore.AssertExpectations(t)
}

func TestSweep_ListError(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	mStore.On("List", ctx).Return(nil, errors.New("bucket unreachable"))

	sw := New(mStore, testPolicy, nil, nil)
	st := sw.Sweep(ctx)

	assert.Equal(t, Stats{}, st)
	mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSweep_IdempotentWithPipelineDelete(t *testing.T) {
	ctx := context.Background()
	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	seed(t, d, "shared.pdf", 2*time.Hour)

	require.NoError(t, d.Delete(ctx, "shared.pdf"))
	st := New(d, testPolicy, nil, nil).Sweep(ctx)
	require.NoError(t, d.Delete(ctx, "shared.pdf"))

	assert.Equal(t, Stats{}, st)
	assert.Empty(t, names(t, d))
}

func TestStartStop(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	seed(t, d, "old.pdf", 2*time.Hour)

	m, _ := NewMetrics(nil)
	sw := New(d, testPolicy, nil, m)
	sw.Start(context.Background())
	sw.Start(context.Background())

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(d.Root())
		return err == nil && len(entries) == 0
	}, time.Second, 5*time.Millisecond, "immediate tick should reclaim the stale file")
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.runs) >= 3
	}, time.Second, 5*time.Millisecond, "ticker should keep sweeping")

	sw.Stop()
	sw.Stop()

	runs := testutil.ToFloat64(m.runs)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, runs, testutil.ToFloat64(m.runs))
}

func TestStopBeforeStart(t *testing.T) {
	sw := New(new(storeMocks.MockStore), testPolicy, nil, nil)
	sw.Stop()
	sw.Start(context.Background())
	sw.Stop()
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
