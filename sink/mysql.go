package sink

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/pingcap/errors"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/siddontang/go-mysql/client"

	"logevent/event"
	"logevent/log"
	"logevent/metrics"
	"logevent/publisher"
)

const (
	MysqlSinkName = "mysql"

	mysqlDatetimeLayout = "2006-01-02 15:04:05.000000"
)

var (
	ErrSinkNotStarted   = errors.New("sink is not started, please invoke [ Start ] first")
	ErrInvalidTableName = errors.New("invalid table name")
)

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MysqlSinkConfig holds the connection settings of a MysqlSink.
type MysqlSinkConfig struct {
	Addr     string
	User     string
	Password string
	Database string
	Table    string
}

// MysqlSink inserts log lines into a MySQL table.
type MysqlSink struct {
	cfg    MysqlSinkConfig
	layout string

	mu   sync.Mutex
	conn *client.Conn

	lines    gometrics.Counter
	failures gometrics.Counter
}

func NewMysqlSink(cfg MysqlSinkConfig, layout string) (*MysqlSink, error) {
	if cfg.Table == "" {
		cfg.Table = "log_events"
	}
	if !tableNameRegexp.MatchString(cfg.Table) {
		return nil, errors.Annotatef(ErrInvalidTableName, "%q", cfg.Table)
	}
	return &MysqlSink{
		cfg:      cfg,
		layout:   layout,
		lines:    metrics.SinkLines(metrics.Registry, MysqlSinkName),
		failures: metrics.SinkErrors(metrics.Registry, MysqlSinkName),
	}, nil
}

func (s *MysqlSink) Name() string {
	return MysqlSinkName
}

// Start connects to MySQL and creates the table when it is missing.
func (s *MysqlSink) Start() error {
	conn, err := client.Connect(s.cfg.Addr, s.cfg.User, s.cfg.Password, s.cfg.Database)
	if err != nil {
		return errors.Trace(err)
	}
	if err = conn.Ping(); err != nil {
		conn.Close()
		return errors.Trace(err)
	}
	if _, err = conn.Execute(createTableSQL(s.cfg.Table)); err != nil {
		conn.Close()
		return errors.Trace(err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	log.Log.Infof("mysql sink connected to %s, table %s", s.cfg.Addr, s.cfg.Table)
	return nil
}

func (s *MysqlSink) Subscribe(r publisher.Registrar) {
	r.Register(s)
}

func (s *MysqlSink) Handle(src publisher.Source, ev event.LogEvent) error {
	return handle(s, ev)
}

func (s *MysqlSink) Write(message string, timestamp time.Time) error {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	line := FormatLine(timestamp, message, s.layout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		s.failures.Inc(1)
		return errors.Trace(ErrSinkNotStarted)
	}
	result, err := s.conn.Execute(insertSQL(s.cfg.Table), timestamp.Format(mysqlDatetimeLayout), message, line)
	if err != nil {
		s.failures.Inc(1)
		return errors.Annotatef(err, "mysql sink")
	}
	s.lines.Inc(1)
	log.Log.Debugf("insert log line id: %d", result.InsertId)
	return nil
}

func (s *MysqlSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return errors.Trace(err)
}

func createTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"`id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, "+
		"`logged_at` DATETIME(6) NOT NULL, "+
		"`message` TEXT NOT NULL, "+
		"`line` TEXT NOT NULL)", table)
}

func insertSQL(table string) string {
	return fmt.Sprintf("INSERT INTO `%s` (`logged_at`, `message`, `line`) VALUES (?, ?, ?)", table)
}
