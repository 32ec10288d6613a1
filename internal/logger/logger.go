package logger

type Fields map[string]any

type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}

// nopLogger discards everything. Used when a component is built without a logger.
type nopLogger struct{}

func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Trace(...any)                   {}
func (nopLogger) Debug(...any)                   {}
func (nopLogger) Info(...any)                    {}
func (nopLogger) Warn(...any)                    {}
func (nopLogger) Error(...any)                   {}
func (nopLogger) Fatal(...any)                   {}
func (l nopLogger) WithFields(Fields) Logger     { return l }
func (l nopLogger) WithField(string, any) Logger { return l }
func (l nopLogger) WithError(error) Logger       { return l }
