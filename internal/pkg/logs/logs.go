package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defLevel      = zerolog.WarnLevel
	timeFormat    = "15:04:05.000"
	colorDarkGray = 90
)

type initOptsT struct {
	level  string
	pretty bool
}

type InitOpt func(*initOptsT)

func WithLevel(level string) InitOpt {
	return func(o *initOptsT) {
		o.level = level
	}
}

func WithPretty() InitOpt {
	return func(o *initOptsT) {
		o.pretty = true
	}
}

// InitLogger sets the global logger. Logs always go to stderr so that trace
// output on stdout stays clean.
func InitLogger(opts ...InitOpt) {
	o := initOptsT{}
	for _, opt := range opts {
		opt(&o)
	}

	level := defLevel
	if o.level != "" {
		if l, err := zerolog.ParseLevel(o.level); err == nil {
			level = l
		}
	}

	zerolog.SetGlobalLevel(level)
	zerolog.CallerMarshalFunc = shortenCaller

	if o.pretty {
		writer := zerolog.ConsoleWriter{
			Out:             os.Stderr,
			TimeFormat:      timeFormat,
			FormatTimestamp: mkTimestampFormatter(timeFormat, colorDarkGray),
		}
		log.Logger = zerolog.New(writer).With().Timestamp().Caller().Logger()
		return
	}

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
}

func shortenCaller(_ uintptr, file string, line int) string {
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

func mkTimestampFormatter(format string, color int) zerolog.Formatter {
	return func(i interface{}) string {
		var ts string
		switch v := i.(type) {
		case string:
			t, err := time.Parse(zerolog.TimeFieldFormat, v)
			if err != nil {
				ts = v
			} else {
				ts = t.Local().Format(format)
			}
		case nil:
			ts = "<nil>"
		default:
			ts = fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, ts)
	}
}
