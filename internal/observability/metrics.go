package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
	rollupDeltas       *CounterVec

	sseConnections *Gauge
	timerEvents    *CounterVec
	clientErrors   *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when Init was never
// called with enabled=true. All methods are nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New builds an unregistered Metrics value. Tests use it directly.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("discipline_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"discipline_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("discipline_api_inflight_requests", "In-flight API requests."),
		aggregateOps: NewHistogramVec(
			"discipline_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"operation", "status"},
			nil,
		),
		aggregateConflicts: NewCounterVec("discipline_aggregate_conflicts_total", "Aggregate writes rejected with a conflict.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("discipline_aggregate_retries_total", "Aggregate writes failing with a retryable error.", []string{"operation"}),
		rollupDeltas:       NewCounterVec("discipline_rollup_deltas_total", "Rollup deltas applied by ledger kind.", []string{"kind"}),
		sseConnections:     NewGauge("discipline_sse_connections", "Open SSE client connections."),
		timerEvents:        NewCounterVec("discipline_timer_events_total", "Focus timer commands by action/outcome.", []string{"action", "outcome"}),
		clientErrors:       NewCounterVec("discipline_client_errors_total", "Errors reported by frontends.", []string{"kind"}),
		dbStats:            NewGaugeVec("discipline_db_pool", "database/sql pool statistics.", []string{"driver", "stat"}),
		redisUp:            NewGauge("discipline_redis_up", "1 when the last redis ping succeeded."),
		redisPing:          NewGauge("discipline_redis_ping_seconds", "Latency of the last redis ping."),
		scrapeInterval:     10 * time.Second,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	families := []writer{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateConflicts, m.aggregateRetries, m.rollupDeltas,
		m.sseConnections, m.timerEvents, m.clientErrors,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, f := range families {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) IncRollupDelta(kind string) {
	if m == nil {
		return
	}
	m.rollupDeltas.Inc(kind)
}

func (m *Metrics) SSEConnectionOpened() {
	if m == nil {
		return
	}
	m.sseConnections.Inc()
}

func (m *Metrics) SSEConnectionClosed() {
	if m == nil {
		return
	}
	m.sseConnections.Dec()
}

func (m *Metrics) IncTimerEvent(action, outcome string) {
	if m == nil {
		return
	}
	m.timerEvents.Inc(action, outcome)
}

func (m *Metrics) IncClientError(kind string) {
	if m == nil {
		return
	}
	m.clientErrors.Inc(kind)
}

// StartDBCollector samples database/sql pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, driver string) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), driver, "open_connections")
				m.dbStats.Set(float64(stats.InUse), driver, "in_use")
				m.dbStats.Set(float64(stats.Idle), driver, "idle")
				m.dbStats.Set(float64(stats.WaitCount), driver, "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), driver, "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), driver, "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb on every scrape interval. The client is owned
// by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
