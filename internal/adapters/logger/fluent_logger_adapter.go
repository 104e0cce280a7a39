package logger_adapter

import (
	"fmt"
	"log/slog"
	"time"

	"listing-service/internal/core/port"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FluentLoggerAdapter отправляет записи в Fluent Bit.
// Тег записи - уровень, клиент сам добавляет TagPrefix.
type FluentLoggerAdapter struct {
	client   *fluent.Fluent
	fields   port.Fields
	minLevel slog.Level
}

func NewFluentLoggerAdapter(client *fluent.Fluent, minLevel slog.Leveler) (*FluentLoggerAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("fluent client cannot be nil")
	}
	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}
	return &FluentLoggerAdapter{client: client, fields: port.Fields{}, minLevel: level}, nil
}

func (a *FluentLoggerAdapter) merge(fields port.Fields) port.Fields {
	out := make(port.Fields, len(a.fields)+len(fields)+3)
	for k, v := range a.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (a *FluentLoggerAdapter) post(level slog.Level, msg string, fields port.Fields, err error) {
	if level < a.minLevel {
		return
	}
	record := a.merge(fields)
	record["level"] = level.String()
	record["message"] = msg
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		record["error"] = err.Error()
	}
	// ошибку отправки некуда логировать
	_ = a.client.Post(level.String(), record)
}

func (a *FluentLoggerAdapter) Debug(msg string, fields port.Fields) {
	a.post(slog.LevelDebug, msg, fields, nil)
}

func (a *FluentLoggerAdapter) Info(msg string, fields port.Fields) {
	a.post(slog.LevelInfo, msg, fields, nil)
}

func (a *FluentLoggerAdapter) Warn(msg string, fields port.Fields) {
	a.post(slog.LevelWarn, msg, fields, nil)
}

func (a *FluentLoggerAdapter) Error(msg string, err error, fields port.Fields) {
	a.post(slog.LevelError, msg, fields, err)
}

func (a *FluentLoggerAdapter) WithFields(fields port.Fields) port.LoggerPort {
	return &FluentLoggerAdapter{client: a.client, fields: a.merge(fields), minLevel: a.minLevel}
}

func (a *FluentLoggerAdapter) Close() error {
	return a.client.Close()
}
