package server

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Output to a terminal gets the
// human-readable text formatter, anything else gets JSON lines.
func NewLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger, nil
}
