// This package defines the config shared by the bencat tool and the transcode package.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Debug             bool
	RootDir           string
	LoggingPrefix     string
	SkipDuplicateKeys bool
	Workers           int
	MaxFileSize       int64
	writer            io.Writer
}

func (c Config) Logger(source string) *zap.SugaredLogger {
	var p string
	if source == "" {
		p = c.LoggingPrefix
	} else {
		p = fmt.Sprintf("%s:%s", c.LoggingPrefix, source)
	}

	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}
	opts := []zap.Option{
		zap.Fields(zap.String("source", p)),
	}

	de := zap.NewDevelopmentEncoderConfig()
	fileEncoder := zapcore.NewJSONEncoder(de)
	consoleEncoder := zapcore.NewConsoleEncoder(de)
	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(c.writer), level),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level),
	)
	logger := zap.New(core, opts...)
	sugar := logger.Sugar()
	return sugar
}

type Option func(*Config)

func WithDebug(d bool) Option {
	return func(c *Config) {
		c.Debug = d
	}
}

func WithRootDir(d string) Option {
	return func(c *Config) {
		c.RootDir = d
	}
}

func WithLoggingPrefix(p string) Option {
	return func(c *Config) {
		c.LoggingPrefix = p
	}
}

// WithSkipDuplicateKeys keeps the first of two equal keys in a dictionary instead of rejecting the document.
func WithSkipDuplicateKeys(s bool) Option {
	return func(c *Config) {
		c.SkipDuplicateKeys = s
	}
}

// WithWorkers bounds how many files are validated at once.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithMaxFileSize(n int64) Option {
	return func(c *Config) {
		c.MaxFileSize = n
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		Debug:             os.Getenv("DEBUG") == "1",
		RootDir:           "",
		LoggingPrefix:     "bencat",
		SkipDuplicateKeys: false,
		Workers:           4,
		MaxFileSize:       64 << 20,

		writer: nil,
	}
	for _, o := range opts {
		o(c)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}

	// No RootDir, no log file.
	if c.RootDir == "" {
		c.writer = io.Discard
		return c
	}
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(c.RootDir, "bencat.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	c.writer = writer
	return c
}
