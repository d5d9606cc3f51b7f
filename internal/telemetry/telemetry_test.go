package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"disabled ignores everything", func(c *Config) { c.Enabled = false; c.Endpoint = "" }, ""},
		{"local insecure ok", func(c *Config) {}, ""},
		{"ipv6 loopback ok", func(c *Config) { c.Endpoint = "[::1]:4317" }, ""},
		{"http scheme local ok", func(c *Config) { c.Endpoint = "http://127.0.0.1:4318"; c.Protocol = "http/protobuf" }, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"remote insecure", func(c *Config) { c.Endpoint = "otel.example.com:4317" }, "insecure connections"},
		{"remote tls ok", func(c *Config) { c.Endpoint = "otel.example.com:4317"; c.Insecure = false }, ""},
		{"bad protocol", func(c *Config) { c.Protocol = "udp" }, "protocol must be"},
		{"bad sample rate", func(c *Config) { c.SampleRate = 1.5 }, "sample_rate"},
		{"zero interval", func(c *Config) { c.Metrics.ExportInterval = 0 }, "export_interval"},
		{"zero shutdown", func(c *Config) { c.ShutdownAfter = config.Duration(0) }, "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.False(t, tel.Health().Enabled)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.Equal(t, HealthStatus{}, tel.Health())
}

func TestTestTelemetry_RecordsSpans(t *testing.T) {
	tt := NewTestTelemetry()

	_, span := tt.Tracer("test").Start(context.Background(), "pipeline.run")
	span.SetAttributes(attribute.String("run.id", "r1"), attribute.Int("stages", 4))
	span.End()

	tt.AssertSpanExists(t, "pipeline.run")
	tt.AssertSpanAttribute(t, "pipeline.run", "run.id", "r1")
	tt.AssertSpanAttribute(t, "pipeline.run", "stages", int64(4))
	assert.Equal(t, []string{"pipeline.run"}, tt.SpanNames())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tt.Shutdown(ctx))
}
