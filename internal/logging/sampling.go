package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newSampledCore thins trace, debug and info entries. Gate violations and
// stage failures are logged at warn and error, so those levels bypass the
// sampler and every run keeps a complete record of them.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	chatty := bandCore{Core: core, band: zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.WarnLevel })}
	kept := bandCore{Core: core, band: zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.WarnLevel })}
	sampled := zapcore.NewSamplerWithOptions(chatty, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter)
	return zapcore.NewTee(sampled, kept)
}

// bandCore forwards only the levels band accepts.
type bandCore struct {
	zapcore.Core
	band zapcore.LevelEnabler
}

func (c bandCore) Enabled(l zapcore.Level) bool {
	return c.band.Enabled(l) && c.Core.Enabled(l)
}

func (c bandCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.band.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c bandCore) With(fields []zapcore.Field) zapcore.Core {
	return bandCore{Core: c.Core.With(fields), band: c.band}
}
