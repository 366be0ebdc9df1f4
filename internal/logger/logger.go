package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. A non-empty path adds a JSON log
// file next to the console output. The returned closer releases that file.
func Init(level, path string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	var file *os.File
	if path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if file == nil {
		return nopCloser{}, nil
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
