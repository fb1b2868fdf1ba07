package logger

import (
	"gitlab.com/toku-assess.net/internal/adapter/logging"
	"gitlab.com/toku-assess.net/internal/config"
)

// Logger is the process logger, replaced by Init once configuration is loaded.
var Logger = logging.NewZapLogger(nil)

func Init(cfg *config.LogConfig) {
	Logger = logging.NewZapLogger(cfg)
}
