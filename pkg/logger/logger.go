// Package logger configures the process-wide zerolog logger.
package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"true"`
	Service      string `split_words:"true" default:"sofra"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: true,
	Service:      "sofra",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the zerolog global logger. The REPL shares stdout with the
// conversation, so logs go to stderr.
func Init(opts ...Config) {
	conf := safe(opts...)

	if conf.PrettyFormat {
		w := zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) { cw.Out = os.Stderr })
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if conf.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	log.Logger = log.Logger.With().Str("service", conf.Service).Caller().Logger()
}
