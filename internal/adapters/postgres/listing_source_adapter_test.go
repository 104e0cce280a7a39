package postgres_adapter

import (
	"testing"

	"listing-service/internal/core/port"

	"github.com/stretchr/testify/assert"
)

type warnRecorder struct {
	warnings *[]port.Fields
}

func (r warnRecorder) Debug(string, port.Fields)        {}
func (r warnRecorder) Info(string, port.Fields)         {}
func (r warnRecorder) Error(string, error, port.Fields) {}
func (r warnRecorder) Warn(_ string, f port.Fields)     { *r.warnings = append(*r.warnings, f) }
func (r warnRecorder) WithFields(port.Fields) port.LoggerPort {
	return r
}

func TestDecodeRules(t *testing.T) {
	var warnings []port.Fields
	logger := warnRecorder{warnings: &warnings}

	assert.Equal(t, map[string]bool{"pets": true, "smoking": false},
		decodeRules("a", []byte(`{"pets": true, "smoking": false}`), logger))
	assert.Nil(t, decodeRules("b", nil, logger))
	assert.Empty(t, warnings)

	for _, raw := range []string{`["pets"]`, `"yes"`, `{"pets": "maybe"}`, `{broken`} {
		assert.Nil(t, decodeRules("c", []byte(raw), logger), raw)
	}
	if assert.Len(t, warnings, 4) {
		assert.Equal(t, "c", warnings[0]["listing_id"])
	}
}
