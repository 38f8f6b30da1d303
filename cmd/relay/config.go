package main

import "time"

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,default=64"`
	SinkBufferSize    int           `env:"SINK_BUFFER_SIZE,default=256"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8000"`
}
