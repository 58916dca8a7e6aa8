// Package logging routes the standard logger, and gin's writers, to stderr
// and an optional rotating file.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/readsync/internal/config"
)

// Setup installs the process log writer and returns it along with a close
// function that flushes the rotating file, if any.
func Setup(cfg config.Log) (io.Writer, func() error) {
	w, closer := newWriter(os.Stderr, cfg)

	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w

	return w, closer
}

func newWriter(terminal io.Writer, cfg config.Log) (io.Writer, func() error) {
	if cfg.File == "" {
		return terminal, func() error { return nil }
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(terminal, fileWriter), fileWriter.Close
}
