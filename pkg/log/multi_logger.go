package log

// MultiLogger fans an SDK event out to several sinks, typically a
// console SlogAdapter next to a FileLogger capture.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines the given sinks into one Logger.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log hands the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
