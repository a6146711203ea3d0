package stats

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const namespace = "walletbar"

const (
	resultOK    = "ok"
	resultError = "error"
)

// Collector counts what a run did and exposes it as prometheus metrics.
// It is meant to be dumped to a node_exporter textfile at the end of a run
// since the process is short lived. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	derivations   *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	walletBalance *prometheus.GaugeVec
	walletPartial *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	runDuration   *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_total",
			Help:      "Number of addresses derived, by chain and result.",
		}, []string{"chain", "result"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_lookups_total",
			Help:      "Number of address balance lookups, by chain and result.",
		}, []string{"chain", "result"}),
		walletBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_balance_sats",
			Help:      "Confirmed balance of a wallet in satoshis.",
		}, []string{"wallet"}),
		walletPartial: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_partial",
			Help:      "Whether the last scan of a wallet stopped early.",
		}, []string{"wallet"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of runs, by mode and result.",
		}, []string{"mode", "result"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run, by mode.",
		}, []string{"mode"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the end of the last run.",
		}),
	}

	c.registry.MustRegister(
		c.derivations,
		c.lookups,
		c.walletBalance,
		c.walletPartial,
		c.runs,
		c.runDuration,
		c.lastRun,
	)
	return c
}

// Registry returns the registry holding the collector metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) DerivationDone(chain string, err error) {
	c.derivations.WithLabelValues(chain, result(err)).Inc()
}

func (c *Collector) LookupDone(chain string, err error) {
	c.lookups.WithLabelValues(chain, result(err)).Inc()
}

func (c *Collector) WalletScanned(name string, balance uint64, partial bool) {
	c.walletBalance.WithLabelValues(name).Set(float64(balance))
	c.walletPartial.WithLabelValues(name).Set(boolToFloat(partial))
}

func (c *Collector) RunDone(mode string, elapsed time.Duration, err error) {
	c.runs.WithLabelValues(mode, result(err)).Inc()
	c.runDuration.WithLabelValues(mode).Set(elapsed.Seconds())
	c.lastRun.SetToCurrentTime()
}

// WriteTextfile atomically writes all metrics to path in the text
// exposition format. The file name must end with .prom to be picked up by
// node_exporter.
func (c *Collector) WriteTextfile(path string) error {
	if filepath.Ext(path) != ".prom" {
		return fmt.Errorf("metrics textfile %s must have .prom extension", path)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return err
	}
	log.WithField("path", path).Debug("metrics written")
	return nil
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
