package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		in      Config
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			in:   Config{},
			want: &Config{LogFormat: "text", LogLevel: "warn"},
		},
		{
			name: "normalised case",
			in:   Config{LogFormat: "JSON", LogLevel: "Debug", CatalogPaths: []string{"tools"}},
			want: &Config{LogFormat: "json", LogLevel: "debug", CatalogPaths: []string{"tools"}},
		},
		{
			name:    "invalid format",
			in:      Config{LogFormat: "yaml"},
			wantErr: "invalid log-format",
		},
		{
			name:    "invalid level",
			in:      Config{LogLevel: "trace"},
			wantErr: "invalid log-level",
		},
		{
			name:    "empty catalog path",
			in:      Config{CatalogPaths: []string{""}},
			wantErr: "catalog path cannot be empty",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewConfig(tc.in)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "info"}, buf)
	logger.Debug("hidden")
	logger.Info("shown", "tool", "RNAfold")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "RNAfold", entry["tool"])
	assert.Equal(t, "toolwrap", entry["app"])
}
