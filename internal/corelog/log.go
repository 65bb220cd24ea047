package corelog

import "sync"

// Logger is the structured logging surface used throughout the datapath.
// Field methods return a new Logger rather than mutating the receiver,
// so call sites can build up context without stepping on each other's
// fields across goroutines.
type Logger interface {
	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsDebugEnabled() bool
}

var (
	once   sync.Once
	logger Logger
)

// L returns the process-wide logger. Before Init is called it is a
// discard logger so packages can log unconditionally during early
// startup without a nil check.
func L() Logger {
	if logger == nil {
		return discard{}
	}
	return logger
}

// Init configures the global logger from cfg. Only the first call
// takes effect; later calls are no-ops, matching the single
// initialization point a long-running worker process expects.
func Init(cfg *Config) error {
	var err error
	once.Do(func() {
		err = initByConfig(cfg)
	})
	return err
}

type discard struct{}

func (discard) Trace(args ...interface{})                 {}
func (discard) Tracef(format string, args ...interface{}) {}
func (discard) Debug(args ...interface{})                 {}
func (discard) Debugf(format string, args ...interface{}) {}
func (discard) Info(args ...interface{})                  {}
func (discard) Infof(format string, args ...interface{})  {}
func (discard) Warn(args ...interface{})                  {}
func (discard) Warnf(format string, args ...interface{})  {}
func (discard) Error(args ...interface{})                 {}
func (discard) Errorf(format string, args ...interface{}) {}
func (discard) Fatal(args ...interface{})                 {}
func (discard) Fatalf(format string, args ...interface{}) {}

func (d discard) WithField(field string, value interface{}) Logger   { return d }
func (d discard) WithFields(fields map[string]interface{}) Logger    { return d }
func (d discard) WithError(err error) Logger                         { return d }
func (discard) IsDebugEnabled() bool                                  { return false }
