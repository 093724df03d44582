package server

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"golang.org/x/sync/errgroup"

	"logevent/api"
	"logevent/config"
	"logevent/event"
	"logevent/log"
	"logevent/metrics"
	"logevent/publisher"
	"logevent/sink"
)

const (
	shutdownTimeout = 5 * time.Second
)

// Server owns the publisher and its sinks, and optionally serves the admin API and
// metrics.
type Server struct {
	config    *config.LogEventConfig
	publisher *publisher.Publisher
	sinks     []sink.Sink
	mysql     *sink.MysqlSink

	adminSvr   *api.AdminServer
	metricsSvr *metrics.PrometheusServer

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// NewServer creates the Server from config. Console output goes to stdout, or to
// os.Stdout when stdout is nil. Sinks are subscribed in the order console, file, mysql.
func NewServer(cfg *config.LogEventConfig, stdout io.Writer) (*Server, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, errors.Trace(err)
	}

	s := new(Server)
	s.config = cfg
	s.publisher = publisher.NewPublisher(cfg.PublisherName, publisher.WithFaultPolicy(policy))
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if cfg.Console.Enabled {
		s.sinks = append(s.sinks, sink.NewConsoleSink(stdout, cfg.TimeLayout))
	}
	if cfg.File.Enabled {
		s.sinks = append(s.sinks, sink.NewFileSink(cfg.File.Path, cfg.TimeLayout))
	}
	if cfg.Mysql.Enabled {
		if s.mysql, err = sink.NewMysqlSink(cfg.Mysql.SinkConfig(), cfg.TimeLayout); err != nil {
			return nil, errors.Trace(err)
		}
		if err = s.mysql.Start(); err != nil {
			return nil, errors.Trace(err)
		}
		s.sinks = append(s.sinks, s.mysql)
	}

	for _, sk := range s.sinks {
		sk.Subscribe(s.publisher)
		log.Log.Infof("sink %s subscribed to publisher %s", sk.Name(), cfg.PublisherName)
	}

	s.metricsSvr = metrics.NewPrometheusServer(cfg.MetricsAddr, metrics.Registry, 0)
	s.adminSvr = api.NewAdminServer(cfg.AdminAddr, s)
	return s, nil
}

// Publish dispatches one event carrying message, stamped now, to every sink.
func (s *Server) Publish(message string) (event.LogEvent, error) {
	ev := event.Now(message)
	if err := s.ctx.Err(); err != nil {
		return ev, ErrServerClosed
	}
	if err := s.publisher.Dispatch(ev); err != nil {
		return ev, errors.Trace(err)
	}
	return ev, nil
}

// Subscribers returns the sink names in registration order.
func (s *Server) Subscribers() []string {
	names := make([]string, 0, len(s.sinks))
	for _, sk := range s.sinks {
		names = append(names, sk.Name())
	}
	return names
}

// Run serves the admin API, and metrics when metrics_addr is set, until Close.
func (s *Server) Run() error {
	g, ctx := errgroup.WithContext(s.ctx)

	g.Go(s.adminSvr.Run)
	if len(s.config.MetricsAddr) > 0 {
		g.Go(s.metricsSvr.Run)
	}
	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.adminSvr.Stop(stopCtx)
		if mErr := s.metricsSvr.Stop(stopCtx); err == nil {
			err = mErr
		}
		return err
	})

	return g.Wait()
}

// DumpMetrics writes the metrics to metrics_file in prometheus text format. It does
// nothing when metrics_file is not set.
func (s *Server) DumpMetrics() error {
	if len(s.config.MetricsFile) == 0 {
		return nil
	}
	f, err := os.Create(s.config.MetricsFile)
	if err != nil {
		return errors.Trace(err)
	}
	if err = s.metricsSvr.Dump(f); err != nil {
		f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

// Ctx returns the internal context for outside use.
func (s *Server) Ctx() context.Context {
	return s.ctx
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		log.Log.Infof("closing logevent server")
		s.cancel()
		if s.mysql != nil {
			if err := s.mysql.Stop(); err != nil {
				log.Log.Errorf("stop mysql sink error, err: %v", err)
			}
		}
	})
}
