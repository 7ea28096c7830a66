package logger

import "go.uber.org/zap"

// New builds the process-wide sugared logger. The returned sync function
// should be deferred from main.
func New(debug bool) (*zap.SugaredLogger, func() error, error) {
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
		return nil, nil, err
	}
	return l.Sugar(), l.Sync, nil
}
