package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	defaultPort     = 8000
	defaultAPIAddr  = ":8081"
	defaultLogLevel = "info"

	envPort     = "PORT"
	envLogLevel = "LOG_LEVEL"
)

var (
	ErrInvalidPort = errors.New("invalid port")
)

type Config struct {
	// WSListenAddr is where clients connect to play.
	WSListenAddr string
	// APIListenAddr serves the read-only admin API, empty disables it.
	APIListenAddr string
	LogLevel      zerolog.Level
}

// Parse reads command line flags. Environment values replace built-in
// defaults but explicit flags always win.
func Parse(args []string, getenv func(string) string) (*Config, error) {
	port := defaultPort
	if v := getenv(envPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Join(ErrInvalidPort, err)
		}
		port = p
	}
	logLevel := defaultLogLevel
	if v := getenv(envLogLevel); v != "" {
		logLevel = v
	}

	fs := pflag.NewFlagSet("matchroom", pflag.ContinueOnError)
	var (
		portFlag    = fs.IntP("port", "p", port, "websocket listen port, also read from "+envPort)
		apiAddr     = fs.StringP("api-listen-addr", "a", defaultAPIAddr, "admin api listen address, empty to disable")
		logLevelStr = fs.StringP("log-level", "l", logLevel, "log level, also read from "+envLogLevel)
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *portFlag < 0 || *portFlag > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, *portFlag)
	}
	lvl, err := zerolog.ParseLevel(*logLevelStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		WSListenAddr:  ":" + strconv.Itoa(*portFlag),
		APIListenAddr: *apiAddr,
		LogLevel:      lvl,
	}, nil
}
