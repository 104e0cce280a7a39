package logger_adapter

import (
	"fmt"

	"listing-service/internal/core/port"
)

// MultiLoggerAdapter дублирует каждую запись во все логгеры
type MultiLoggerAdapter struct {
	loggers []port.LoggerPort
}

func NewMultiLoggerAdapter(loggers ...port.LoggerPort) (*MultiLoggerAdapter, error) {
	nonNil := make([]port.LoggerPort, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			nonNil = append(nonNil, l)
		}
	}
	if len(nonNil) == 0 {
		return nil, fmt.Errorf("multilogger: at least one logger is required")
	}
	return &MultiLoggerAdapter{loggers: nonNil}, nil
}

func (m *MultiLoggerAdapter) Debug(msg string, fields port.Fields) {
	for _, l := range m.loggers {
		l.Debug(msg, fields)
	}
}

func (m *MultiLoggerAdapter) Info(msg string, fields port.Fields) {
	for _, l := range m.loggers {
		l.Info(msg, fields)
	}
}

func (m *MultiLoggerAdapter) Warn(msg string, fields port.Fields) {
	for _, l := range m.loggers {
		l.Warn(msg, fields)
	}
}

func (m *MultiLoggerAdapter) Error(msg string, err error, fields port.Fields) {
	for _, l := range m.loggers {
		l.Error(msg, err, fields)
	}
}

func (m *MultiLoggerAdapter) WithFields(fields port.Fields) port.LoggerPort {
	children := make([]port.LoggerPort, len(m.loggers))
	for i, l := range m.loggers {
		children[i] = l.WithFields(fields)
	}
	return &MultiLoggerAdapter{loggers: children}
}
