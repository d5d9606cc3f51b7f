package logging

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Same(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestSampledCore_ThinsInfoButKeepsWarnAndError(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    2,
		Thereafter: 0,
	})
	logger := zap.New(sampled)

	for i := 0; i < 10; i++ {
		logger.Info("stage completed")
		logger.Warn("IEC 62304 standard is impacted but required documents are missing")
		logger.Error("stage failed")
	}

	assert.Equal(t, 2, observed.FilterMessage("stage completed").Len())
	assert.Equal(t, 10, observed.FilterMessage("IEC 62304 standard is impacted but required documents are missing").Len())
	assert.Equal(t, 10, observed.FilterMessage("stage failed").Len())
}

func TestBandCore_With(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	filtered := bandCore{Core: core, band: zapcore.WarnLevel}

	logger := zap.New(filtered.With([]zapcore.Field{zap.String("run_id", "r-1")}))
	logger.Info("dropped")
	logger.Warn("kept")

	entries := observed.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "kept", entries[0].Message)
		assert.Equal(t, "r-1", entries[0].ContextMap()["run_id"])
	}
}
