package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo"
	mw "github.com/labstack/echo/middleware"
	"github.com/pingcap/errors"

	"logevent/event"
	"logevent/log"
)

const (
	adminAPITimeout = 10 * time.Second
)

// Publisher is what the admin API needs from the running process.
type Publisher interface {
	// Publish dispatches one event carrying message, stamped with the current time.
	Publish(message string) (event.LogEvent, error)
	// Subscribers lists the subscribed sink names in registration order.
	Subscribers() []string
}

type AdminServer struct {
	AdminAddr string
	web       *echo.Echo
	pub       Publisher
}

func NewAdminServer(addr string, pub Publisher) *AdminServer {
	s := &AdminServer{
		AdminAddr: addr,
		web:       echo.New(),
		pub:       pub,
	}
	s.web.HideBanner = true
	s.RegisterMiddleware()
	s.RegisterURL()
	return s
}

// Run serves the admin API until Stop is called.
func (s *AdminServer) Run() error {
	log.Log.Infof("admin server listening on %s", s.AdminAddr)
	err := s.web.Start(s.AdminAddr)
	if err != nil && err != http.ErrServerClosed {
		log.Log.Errorf("admin server start error,err: %s", err)
		return errors.Trace(err)
	}
	return nil
}

//RegisterMiddleware implements register middleware in web
func (s *AdminServer) RegisterMiddleware() {
	loggerConfig := mw.LoggerConfig{
		Skipper: mw.DefaultSkipper,
		Format: `{"time":"${time_rfc3339_nano}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}",` +
			`"method":"${method}","uri":"${uri}","status":${status}, "latency":${latency},` +
			`"latency_human":"${latency_human}","bytes_in":${bytes_in},` +
			`"bytes_out":${bytes_out}}` + "\n",
		CustomTimeFormat: "2006-01-02 15:04:05.00000",
		Output:           log.NewWriter(),
	}
	s.web.Use(mw.LoggerWithConfig(loggerConfig))
	s.web.Use(mw.Recover())
}

func (s *AdminServer) RegisterURL() {
	s.web.POST("/log", s.PublishLog)
	s.web.GET("/subscribers", s.AllSubscribers)
	s.web.GET("/healthz", s.Health)
}

func (s *AdminServer) Stop(ctx context.Context) error {
	ctx, cancelFunc := context.WithTimeout(ctx, adminAPITimeout)
	defer cancelFunc()
	if err := s.web.Shutdown(ctx); err != nil {
		log.Log.Errorf("adminServer Shutdown error:%s", err.Error())
		return errors.Trace(err)
	}
	return nil
}

// ServeHTTP lets the admin API be mounted or exercised without a listener.
func (s *AdminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.web.ServeHTTP(w, r)
}
