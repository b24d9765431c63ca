package report

import (
	log "github.com/sirupsen/logrus"
)

// Reporter is the error-reporting sink.  Implementations never fail and
// never block the caller for long; reporting is best-effort.
type Reporter interface {
	Report(err error, fields map[string]string)
}

// LogReporter writes reports to the structured log.
type LogReporter struct {
	logger *log.Logger
}

func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(err error, fields map[string]string) {
	if err == nil {
		return
	}
	f := make(log.Fields, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	r.logger.WithFields(f).WithError(err).Error("agent error")
}
