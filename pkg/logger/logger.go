package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Level        string `split_words:"true" default:"warn"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Level:        "warn",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init configures the global logger. Logs go to stderr so command output on
// stdout stays clean.
func Init(opts ...Config) {
	InitWriter(os.Stderr, opts...)
}

func InitWriter(w io.Writer, opts ...Config) {
	conf := safe(opts...)

	if conf.PrettyFormat {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}

	log.Logger = log.Logger.Level(resolveLevel(conf))
	log.Logger = log.Logger.With().Caller().Stack().Logger()
}

func resolveLevel(conf *Config) zerolog.Level {
	if conf.Debug {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
