package types

// Logger receives warnings and debug output. Implementations decide where
// it goes; the library never writes to the console itself.
type Logger interface {
	Log(format string, args ...interface{})
}

// NoopLogger is a no-op logger
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}
