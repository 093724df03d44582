package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/errors"

	"logevent/api"
	"logevent/config"
	"logevent/event"
	"logevent/log"
	"logevent/server"
	"logevent/utils"
)

var (
	Date    string
	Version string
)

const banner string = `
 _                                  _
| | ___   __ _  _____   _____ _ __ | |_
| |/ _ \ / _' |/ _ \ \ / / _ \ '_ \| __|
| | (_) | (_| |  __/\ V /  __/ | | | |_
|_|\___/ \__, |\___| \_/ \___|_| |_|\__|
         |___/
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("logevent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "logevent config file (.toml, .yaml)")
	message := fs.String("message", event.DefaultMessage, "message to publish")
	serve := fs.Bool("serve", false, "serve the admin API instead of exiting after one event")
	publishTo := fs.String("publish-to", "", "admin API /log URL of a running logevent to publish to")
	printVersion := fs.Bool("version", false, "print logevent version info")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *printVersion {
		fmt.Fprintf(stdout, "version is %s, build at %s\n", Version, Date)
		return 0
	}

	if len(*publishTo) > 0 {
		return publishRemote(*publishTo, *message, stdout, stderr)
	}

	// build config
	cfg := config.NewDefaultConfig()
	if len(*configFile) > 0 {
		var err error
		if cfg, err = config.NewLogEventConfig(*configFile); err != nil {
			fmt.Fprintf(stderr, "NewLogEventConfig error, err:%s\n", err.Error())
			return 1
		}
	}

	// init log
	if err := log.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "InitLogger error, err:%s\n", err.Error())
		return 1
	}
	defer log.UnInitLoggers()

	s, err := server.NewServer(cfg, stdout)
	if err != nil {
		fmt.Fprintln(stderr, errors.ErrorStack(err))
		return 1
	}
	defer s.Close()

	if *serve {
		fmt.Fprint(stdout, banner)
		return serveUntilSignal(s, stderr)
	}

	if _, err = s.Publish(*message); err != nil {
		log.Log.Errorf("publish error, err: %v", err)
		fmt.Fprintln(stderr, errors.ErrorStack(err))
		return 1
	}
	if err = s.DumpMetrics(); err != nil {
		log.Log.Errorf("dump metrics error, err: %v", err)
	}
	return 0
}

func serveUntilSignal(s *server.Server, stderr io.Writer) int {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	done := make(chan error, 1)
	go func() {
		done <- s.Run()
	}()

	select {
	case n := <-sc:
		log.Log.Infof("receive signal %v, closing", n)
	case err := <-done:
		if err != nil {
			fmt.Fprintln(stderr, errors.ErrorStack(err))
			return 1
		}
		return 0
	}

	s.Close()
	if err := <-done; err != nil {
		fmt.Fprintln(stderr, errors.ErrorStack(err))
		return 1
	}
	return 0
}

func publishRemote(url, message string, stdout, stderr io.Writer) int {
	body, err := json.Marshal(api.LogRequest{Message: message})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	resp, err := utils.SendRequest(http.MethodPost, url, body)
	if err != nil {
		fmt.Fprintln(stderr, errors.ErrorStack(err))
		return 1
	}
	fmt.Fprintln(stdout, resp.Message)
	return 0
}
