package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/clubhouse/internal/config"
	"github.com/mcoot/clubhouse/internal/dependencies/mocks"
	"github.com/mcoot/clubhouse/internal/storage/document"
	"github.com/mcoot/clubhouse/internal/storage/memory"
	"github.com/mcoot/clubhouse/internal/storage/metrics"
	"github.com/mcoot/clubhouse/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockIDs    *mocks.MockIDs
	MockRandom *mocks.MockRandom
	Bucket     *memory.Bucket
}

// NewTestApp creates an App over an in-memory bucket with mocked dependencies
func NewTestApp() *TestApp {
	settings := config.Default()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockClock.Tick(time.Millisecond)
	mockIDs := mocks.NewMockIDs()
	mockRandom := mocks.NewMockRandom()
	bucket := memory.New()

	registry := prometheus.NewRegistry()
	store := metrics.Wrap(document.New(bucket, settings.App.Name, mockClock), metrics.NewRecorder(registry))

	app := newWithDependencies(store, mockClock, mockIDs, mockRandom, registry, settings, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockIDs:    mockIDs,
		MockRandom: mockRandom,
		Bucket:     bucket,
	}
}
