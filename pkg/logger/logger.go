package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

const timestampFormat = "2006-01-02 15:04:05"

type Options struct {
	// Console writes coloured output to stderr.
	Console bool
	// FilePath, when set, additionally writes every line to this file.
	FilePath string
	Level    logrus.Level
}

// Logger owns one run's log sinks. Components receive prefixed entries from it
// rather than configuring the global logrus instance.
type Logger struct {
	*logrus.Logger

	file *lumberjack.Logger
}

func New(opts Options) *Logger {
	l := logrus.New()
	l.SetLevel(opts.Level)
	l.SetFormatter(&prefixed.TextFormatter{
		ForceColors:      true,
		ForceFormatting:  true,
		FullTimestamp:    true,
		TimestampFormat:  timestampFormat,
		QuoteEmptyFields: true,
	})

	if opts.Console {
		l.SetOutput(os.Stderr)
	} else {
		l.SetOutput(io.Discard)
	}

	lg := &Logger{Logger: l}
	if opts.FilePath != "" {
		lg.file = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		}

		l.AddHook(&fileHook{
			writer: lg.file,
			formatter: &prefixed.TextFormatter{
				DisableColors:    true,
				ForceFormatting:  true,
				FullTimestamp:    true,
				TimestampFormat:  timestampFormat,
				QuoteEmptyFields: true,
			},
		})
	}

	return lg
}

// Prefixed returns an entry tagged with the component name shown by the formatter.
func (l *Logger) Prefixed(prefix string) *logrus.Entry {
	return l.WithField("prefix", prefix)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// RunLogFile names the log file for a run started at t.
func RunLogFile(t time.Time) string {
	return fmt.Sprintf("torbox_sync_%s.log", t.Format("20060102_150405"))
}

// VerbosityLevel maps the -v count to a level.
func VerbosityLevel(count int) logrus.Level {
	switch {
	case count >= 2:
		return logrus.TraceLevel
	case count == 1:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}
