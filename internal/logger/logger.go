package logger

import (
	"go.uber.org/zap"
)

var base = zap.NewNop()

// Init builds the process-wide logger. Call once from main before
// anything else logs.
func Init(debug bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	base = l
	return l, nil
}

// L returns the process-wide logger. Safe to call before Init; it
// returns a nop logger until Init runs.
func L() *zap.Logger {
	return base
}
