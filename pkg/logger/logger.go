// Package logger provides a process-wide logging facade that fans log calls
// out to one or more sinks. The default sink writes to the console; services
// embedding the pipeline can register additional sinks (e.g. a chat channel
// mirror) without touching call sites.
package logger

// Sink is a logging backend.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var sinks []Sink

// Init registers the sinks used by the package-level logging functions.
// It must be called once at startup; logging before Init is a no-op.
func Init(s ...Sink) {
	sinks = s
}

// Debug writes a message at DEBUG level to all registered sinks.
func Debug(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all registered sinks.
func Info(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all registered sinks.
func Warn(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all registered sinks.
func Error(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Fatal(message, keyvals...)
	}
}
