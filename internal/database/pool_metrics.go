package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics at scrape time.
type PoolCollector struct {
	stat func() *pgxpool.Stat

	conns        *prometheus.Desc
	maxConns     *prometheus.Desc
	acquireTotal *prometheus.Desc
	waitSeconds  *prometheus.Desc
	emptyTotal   *prometheus.Desc
}

// NewPoolCollector builds a collector over db's pool.
func NewPoolCollector(db *DB) *PoolCollector {
	return newPoolCollector(db.Pool.Stat)
}

func newPoolCollector(stat func() *pgxpool.Stat) *PoolCollector {
	return &PoolCollector{
		stat: stat,
		conns: prometheus.NewDesc("db_pool_connections",
			"Pool connections by state.", []string{"state"}, nil),
		maxConns: prometheus.NewDesc("db_pool_max_connections",
			"Configured pool size.", nil, nil),
		acquireTotal: prometheus.NewDesc("db_pool_acquires_total",
			"Successful connection acquisitions.", nil, nil),
		waitSeconds: prometheus.NewDesc("db_pool_acquire_wait_seconds_total",
			"Time spent waiting for a connection.", nil, nil),
		emptyTotal: prometheus.NewDesc("db_pool_empty_acquires_total",
			"Acquisitions that had to wait because the pool was empty.", nil, nil),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.conns
	ch <- c.maxConns
	ch <- c.acquireTotal
	ch <- c.waitSeconds
	ch <- c.emptyTotal
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stat()
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(st.AcquiredConns()), "acquired")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(st.IdleConns()), "idle")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(st.ConstructingConns()), "constructing")
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(st.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireTotal, prometheus.CounterValue, float64(st.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.waitSeconds, prometheus.CounterValue, st.AcquireDuration().Seconds())
	ch <- prometheus.MustNewConstMetric(c.emptyTotal, prometheus.CounterValue, float64(st.EmptyAcquireCount()))
}
