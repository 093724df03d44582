package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/siddontang/go-log/log"
)

// PrometheusServer mirrors a go-metrics registry into prometheus gauges and serves
// them over HTTP.
type PrometheusServer struct {
	addr   string
	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc

	namespace     string
	registry      gometrics.Registry
	subsystem     string
	promRegistry  *prometheus.Registry
	flushInterval time.Duration

	mu     sync.Mutex
	gauges map[string]prometheus.Gauge
}

// NewPrometheusServer creates the bridge. An empty addr gives a bridge that can only
// be flushed and dumped, never served.
func NewPrometheusServer(addr string, r gometrics.Registry, flushInterval time.Duration) *PrometheusServer {
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}
	p := &PrometheusServer{
		addr:          addr,
		namespace:     "logevent",
		registry:      r,
		subsystem:     "metrics",
		promRegistry:  prometheus.NewRegistry(),
		flushInterval: flushInterval,
		gauges:        make(map[string]prometheus.Gauge),
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.promRegistry, promhttp.HandlerOpts{}))
	p.server = &http.Server{Addr: addr, Handler: mux}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

func (ps *PrometheusServer) flattenKey(key string) string {
	key = strings.Replace(key, " ", "_", -1)
	key = strings.Replace(key, ".", "_", -1)
	key = strings.Replace(key, "-", "_", -1)
	key = strings.Replace(key, "=", "_", -1)
	return key
}

func (ps *PrometheusServer) gaugeFromNameAndValue(name string, val float64) {
	key := fmt.Sprintf("%s_%s_%s", ps.namespace, ps.subsystem, name)
	g, ok := ps.gauges[key]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ps.flattenKey(ps.namespace),
			Subsystem: ps.flattenKey(ps.subsystem),
			Name:      ps.flattenKey(name),
			Help:      name,
		})
		ps.promRegistry.MustRegister(g)
		ps.gauges[key] = g
	}
	g.Set(val)
}

// Run serves /metrics until Stop is called.
func (ps *PrometheusServer) Run() error {
	if len(ps.addr) == 0 {
		return nil
	}
	go ps.updatePrometheusMetrics()
	err := ps.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Errorf("PrometheusServer ListenAndServe error,err:%s", err)
		return errors.Trace(err)
	}
	return nil
}

func (ps *PrometheusServer) Stop(ctx context.Context) error {
	ps.cancel()
	if len(ps.addr) == 0 {
		return nil
	}
	return errors.Trace(ps.server.Shutdown(ctx))
}

func (ps *PrometheusServer) updatePrometheusMetrics() {
	tick := time.NewTicker(ps.flushInterval)
	defer tick.Stop()

	ps.Flush()
	for {
		select {
		case <-ps.ctx.Done():
			return
		case <-tick.C:
			log.Debugf("update Prometheus Metrics Once")
			ps.Flush()
		}
	}
}

// Flush copies the current go-metrics values into the prometheus gauges.
func (ps *PrometheusServer) Flush() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.registry.Each(func(name string, i interface{}) {
		switch metric := i.(type) {
		case gometrics.Counter:
			ps.gaugeFromNameAndValue(name, float64(metric.Count()))
		case gometrics.Gauge:
			ps.gaugeFromNameAndValue(name, float64(metric.Value()))
		case gometrics.GaugeFloat64:
			ps.gaugeFromNameAndValue(name, metric.Value())
		case gometrics.Histogram:
			snap := metric.Snapshot()
			ps.gaugeFromNameAndValue(name+".mean", snap.Mean())
			ps.gaugeFromNameAndValue(name+".p95", snap.Percentile(0.95))
			ps.gaugeFromNameAndValue(name+".max", float64(snap.Max()))
		case gometrics.Meter:
			ps.gaugeFromNameAndValue(name, metric.Snapshot().Rate1())
		case gometrics.Timer:
			ps.gaugeFromNameAndValue(name, metric.Snapshot().Rate1())
		}
	})
}

// Dump flushes and writes every gauge to w in the prometheus text format.
func (ps *PrometheusServer) Dump(w io.Writer) error {
	ps.Flush()

	families, err := ps.promRegistry.Gather()
	if err != nil {
		return errors.Trace(err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
