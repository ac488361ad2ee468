package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init() {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("MATCHENGINE_DEV") != "" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = l.Sugar()
}

// Sync flushes buffered entries; called on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
