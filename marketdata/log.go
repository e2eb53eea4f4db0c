package marketdata

import (
	"io"
	"log"
	"os"
)

// Logger is used by the Normalizer to report dropped keys (Infof) and null
// required fields (Warnf). Errorf completes the leveled method set so that
// most loggers, e.g. *logrus.Logger, can be passed in directly.
type Logger interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// stdLog discards info messages and prefixes the rest with their level.
type stdLog struct {
	logger *log.Logger
}

var _ Logger = (*stdLog)(nil)

func (s *stdLog) Infof(format string, v ...interface{}) {}

func (s *stdLog) Warnf(format string, v ...interface{}) {
	s.logger.Printf("WARN "+format, v...)
}

func (s *stdLog) Errorf(format string, v ...interface{}) {
	s.logger.Printf("ERROR "+format, v...)
}

func newStdLog(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &stdLog{logger: log.New(w, "", log.LstdFlags)}
}
