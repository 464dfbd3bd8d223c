package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dexscreener-alert-bot/internal/types"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListActiveAlerts() ([]types.Alert, error) {
	args := m.Called()
	return args.Get(0).([]types.Alert), args.Error(1)
}

func (m *mockStore) MarkTriggered(id int64) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Deliver(ownerID int64, fired types.FiredAlert) error {
	args := m.Called(ownerID, fired)
	return args.Error(0)
}

// fakeQuoter serves canned prices and counts upstream calls per address.
type fakeQuoter struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{
		prices: make(map[string]float64),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeQuoter) Quote(_ context.Context, address string) (*types.TokenQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[address]++
	if err, ok := f.errs[address]; ok {
		return nil, err
	}
	return &types.TokenQuote{TokenAddress: address, PriceUSD: f.prices[address]}, nil
}

func (f *fakeQuoter) callCount(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[address]
}

func newTestMonitor(store Store, quoter Quoter, notifier Notifier) *Monitor {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewMonitor(store, quoter, notifier, metrics, Config{
		Interval:   time.Hour,
		BatchSize:  5,
		BatchPause: time.Millisecond,
	})
}

func upAlert(id, owner int64, address string, initial, target float64) types.Alert {
	return types.Alert{
		ID:           id,
		OwnerID:      owner,
		TokenAddress: address,
		Direction:    types.DirectionUp,
		InitialPrice: initial,
		TargetPrice:  target,
		Active:       true,
	}
}

func TestSweepGroupsAlertsByToken(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.prices["0xaa"] = 1
	quoter.prices["0xbb"] = 1

	// Five alerts over two tokens, none of which can fire.
	store.On("ListActiveAlerts").Return([]types.Alert{
		upAlert(1, 10, "0xAA", 1, 100),
		upAlert(2, 11, "0xaa", 1, 100),
		upAlert(3, 12, "0xAa", 1, 100),
		upAlert(4, 13, "0xbb", 1, 100),
		upAlert(5, 14, "0xBB", 1, 100),
	}, nil)

	monitor := newTestMonitor(store, quoter, notifier)
	require.NoError(t, monitor.Sweep(context.Background()))

	assert.Equal(t, 1, quoter.callCount("0xaa"), "one upstream call per distinct token")
	assert.Equal(t, 1, quoter.callCount("0xbb"))
	notifier.AssertNotCalled(t, "Deliver")
}

func TestSweepDeliversThenMarksTriggered(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.prices["0xaa"] = 120

	store.On("ListActiveAlerts").Return([]types.Alert{
		upAlert(1, 10, "0xaa", 100, 110),
	}, nil)
	notifier.On("Deliver", int64(10), mock.MatchedBy(func(fired types.FiredAlert) bool {
		return fired.Alert.ID == 1 && fired.CurrentPrice == 120
	})).Return(nil).Once()
	store.On("MarkTriggered", int64(1)).Return(true, nil).Once()

	monitor := newTestMonitor(store, quoter, notifier)
	require.NoError(t, monitor.Sweep(context.Background()))

	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSweepIsolatesUpstreamFailures(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.errs["0xaa"] = errors.New("upstream timeout")
	quoter.prices["0xbb"] = 500

	store.On("ListActiveAlerts").Return([]types.Alert{
		upAlert(1, 10, "0xaa", 100, 110),
		upAlert(2, 11, "0xbb", 100, 110),
	}, nil)
	notifier.On("Deliver", int64(11), mock.Anything).Return(nil).Once()
	store.On("MarkTriggered", int64(2)).Return(true, nil).Once()

	monitor := newTestMonitor(store, quoter, notifier)
	require.NoError(t, monitor.Sweep(context.Background()))

	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkTriggered", int64(1))
}

func TestSweepRetriesFailedDeliveryNextCycle(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.prices["0xaa"] = 120

	store.On("ListActiveAlerts").Return([]types.Alert{
		upAlert(1, 10, "0xaa", 100, 110),
	}, nil)
	notifier.On("Deliver", int64(10), mock.Anything).Return(errors.New("chat unreachable")).Once()
	notifier.On("Deliver", int64(10), mock.Anything).Return(nil).Once()
	store.On("MarkTriggered", int64(1)).Return(true, nil).Once()

	monitor := newTestMonitor(store, quoter, notifier)

	// First cycle: delivery fails, the alert must stay unconsumed.
	require.NoError(t, monitor.Sweep(context.Background()))
	store.AssertNotCalled(t, "MarkTriggered", int64(1))

	// Next cycle retries and consumes.
	require.NoError(t, monitor.Sweep(context.Background()))
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSweepToleratesConcurrentDelete(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.prices["0xaa"] = 120

	store.On("ListActiveAlerts").Return([]types.Alert{
		upAlert(1, 10, "0xaa", 100, 110),
	}, nil)
	notifier.On("Deliver", int64(10), mock.Anything).Return(nil).Once()
	// The user deleted the alert between snapshot and consumption.
	store.On("MarkTriggered", int64(1)).Return(false, nil).Once()

	monitor := newTestMonitor(store, quoter, notifier)
	require.NoError(t, monitor.Sweep(context.Background()))

	store.AssertExpectations(t)
}

func TestSweepSkipsZeroPriceQuotes(t *testing.T) {
	store := new(mockStore)
	notifier := new(mockNotifier)
	quoter := newFakeQuoter()
	quoter.prices["0xaa"] = 0

	store.On("ListActiveAlerts").Return([]types.Alert{
		// Down alert that would fire on any price at or below 90.
		{ID: 1, OwnerID: 10, TokenAddress: "0xaa", Direction: types.DirectionDown,
			InitialPrice: 100, TargetPrice: 90, Active: true},
	}, nil)

	monitor := newTestMonitor(store, quoter, notifier)
	require.NoError(t, monitor.Sweep(context.Background()))

	notifier.AssertNotCalled(t, "Deliver")
}

func TestSweepPropagatesStoreErrors(t *testing.T) {
	store := new(mockStore)
	store.On("ListActiveAlerts").Return([]types.Alert(nil), errors.New("disk gone"))

	monitor := newTestMonitor(store, newFakeQuoter(), new(mockNotifier))
	assert.Error(t, monitor.Sweep(context.Background()))
}

func TestSweepEmptyAlertSetDoesNothing(t *testing.T) {
	store := new(mockStore)
	store.On("ListActiveAlerts").Return([]types.Alert{}, nil)

	quoter := newFakeQuoter()
	monitor := newTestMonitor(store, quoter, new(mockNotifier))
	require.NoError(t, monitor.Sweep(context.Background()))
	assert.Empty(t, quoter.calls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := new(mockStore)
	store.On("ListActiveAlerts").Return([]types.Alert{}, nil)

	metrics := NewMetrics(prometheus.NewRegistry())
	monitor := NewMonitor(store, newFakeQuoter(), new(mockNotifier), metrics, Config{
		Interval:   10 * time.Millisecond,
		BatchSize:  5,
		BatchPause: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
