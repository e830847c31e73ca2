package main

type Config struct {
	DataDir        string `env:"DATA_DIR,default=data"`
	Host           string `env:"HOST,default=localhost"`
	TCPPort        int    `env:"TCP_PORT,default=9090"`
	HTTPPort       int    `env:"HTTP_PORT,default=3000"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	OutboxCapacity int    `env:"OUTBOX_CAPACITY,default=64"`
}
