package alert

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/types"
)

// Store is the slice of the persistence layer the monitor needs.
type Store interface {
	ListActiveAlerts() ([]types.Alert, error)
	MarkTriggered(id int64) (bool, error)
}

// Quoter supplies current token quotes, typically the cached DexScreener client.
type Quoter interface {
	Quote(ctx context.Context, address string) (*types.TokenQuote, error)
}

// Notifier delivers a fired alert to its owner. A returned error leaves the
// alert active so the next sweep retries the delivery.
type Notifier interface {
	Deliver(ownerID int64, fired types.FiredAlert) error
}

// Metrics counts what the monitor does. Registered once at startup and
// persisted by the caller across restarts.
type Metrics struct {
	Sweeps       prometheus.Counter
	Triggered    prometheus.Counter
	QuoteErrors  prometheus.Counter
	NotifyErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "monitor",
			Name:      "sweeps_total",
			Help:      "The total number of completed alert sweeps",
		}),
		Triggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "monitor",
			Name:      "alerts_triggered_total",
			Help:      "The total number of alerts delivered and marked triggered",
		}),
		QuoteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "monitor",
			Name:      "quote_errors_total",
			Help:      "The total number of upstream quote failures",
		}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "monitor",
			Name:      "notify_errors_total",
			Help:      "The total number of failed alert deliveries",
		}),
	}

	reg.MustRegister(m.Sweeps, m.Triggered, m.QuoteErrors, m.NotifyErrors)
	return m
}

// Config tunes the sweep cadence and the upstream fan-out.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	BatchPause time.Duration
}

// Monitor runs the recurring alert sweep: list active alerts, group them by
// token address, quote each distinct token once, evaluate, notify, and mark
// consumed. Exactly one sweep runs at a time.
type Monitor struct {
	store    Store
	quoter   Quoter
	notifier Notifier
	metrics  *Metrics

	interval   time.Duration
	batchSize  int
	batchPause time.Duration
}

func NewMonitor(store Store, quoter Quoter, notifier Notifier, metrics *Metrics, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = 500 * time.Millisecond
	}

	return &Monitor{
		store:      store,
		quoter:     quoter,
		notifier:   notifier,
		metrics:    metrics,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		batchPause: cfg.BatchPause,
	}
}

// Run sweeps immediately and then on every interval tick until the context
// is cancelled. A failing sweep is logged and never kills the loop.
func (m *Monitor) Run(ctx context.Context) {
	log.Info("Alert monitor started.")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.guardedSweep(ctx)

		select {
		case <-ctx.Done():
			log.Info("Alert monitor stopped.")
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) guardedSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic recovered in alert sweep: %v", r)
		}
	}()

	if err := m.Sweep(ctx); err != nil {
		log.Errorf("Alert sweep failed: %v", err)
	}
}

// Sweep runs exactly one pass over all active alerts. Exported so tests and
// operators can drive a single deterministic cycle.
func (m *Monitor) Sweep(ctx context.Context) error {
	m.metrics.Sweeps.Inc()

	alerts, err := m.store.ListActiveAlerts()
	if err != nil {
		return errors.Wrap(err, "could not list active alerts")
	}
	if len(alerts) == 0 {
		return nil
	}

	groups := groupByAddress(alerts)
	addresses := make([]string, 0, len(groups))
	for addr := range groups {
		addresses = append(addresses, addr)
	}
	log.Debugf("Sweeping %d alerts across %d tokens", len(alerts), len(groups))

	quotes := m.fetchQuotes(ctx, addresses)

	for addr, group := range groups {
		quote, ok := quotes[addr]
		if !ok {
			continue
		}
		if quote.PriceUSD == 0 {
			log.Debugf("Zero price for %s, skipping this cycle", addr)
			continue
		}

		for _, fired := range Evaluate(quote, group) {
			m.consume(fired)
		}
	}

	return nil
}

// consume hands one fired alert to the notifier and, only once delivery
// succeeded, marks it triggered. Failed deliveries leave the alert active so
// the next sweep retries; an alert deleted mid-sweep makes MarkTriggered a
// no-op instead of resurrecting the record.
func (m *Monitor) consume(fired types.FiredAlert) {
	if err := m.notifier.Deliver(fired.Alert.OwnerID, fired); err != nil {
		m.metrics.NotifyErrors.Inc()
		log.Errorf("Failed to deliver alert %d to user %d: %v", fired.Alert.ID, fired.Alert.OwnerID, err)
		return
	}

	consumed, err := m.store.MarkTriggered(fired.Alert.ID)
	if err != nil {
		log.Errorf("Failed to mark alert %d triggered: %v", fired.Alert.ID, err)
		return
	}
	if !consumed {
		log.Debugf("Alert %d was already inactive", fired.Alert.ID)
		return
	}

	m.metrics.Triggered.Inc()
	log.Infof("Alert %d triggered for user %d at %.10f", fired.Alert.ID, fired.Alert.OwnerID, fired.CurrentPrice)
}

// fetchQuotes resolves each distinct address once, fanning out in small
// batches with a pause in between to stay inside upstream rate limits.
// Failed tokens are simply absent from the result; their alerts wait for the
// next cycle.
func (m *Monitor) fetchQuotes(ctx context.Context, addresses []string) map[string]*types.TokenQuote {
	quotes := make(map[string]*types.TokenQuote, len(addresses))
	var mu sync.Mutex

	for start := 0; start < len(addresses); start += m.batchSize {
		end := min(start+m.batchSize, len(addresses))

		var wg sync.WaitGroup
		for _, addr := range addresses[start:end] {
			wg.Add(1)
			go func(addr string) {
				defer wg.Done()

				quote, err := m.quoter.Quote(ctx, addr)
				if err != nil {
					m.metrics.QuoteErrors.Inc()
					log.Warnf("No quote for %s this cycle: %v", addr, err)
					return
				}

				mu.Lock()
				quotes[addr] = quote
				mu.Unlock()
			}(addr)
		}
		wg.Wait()

		if end < len(addresses) {
			select {
			case <-ctx.Done():
				return quotes
			case <-time.After(m.batchPause):
			}
		}
	}

	return quotes
}

func groupByAddress(alerts []types.Alert) map[string][]types.Alert {
	groups := make(map[string][]types.Alert)
	for _, a := range alerts {
		addr := strings.ToLower(a.TokenAddress)
		groups[addr] = append(groups[addr], a)
	}
	return groups
}
