package physics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsMatchesMandatedTuning(t *testing.T) {
	s := DefaultSettings()
	assert.InDelta(t, 1.0/60.0, s.StepFrequency, 1e-12)
	assert.Equal(t, 6, s.VelocityIterations)
	assert.Equal(t, 2, s.PositionIterations)
	assert.Equal(t, ContinuousDetectionBulletsOnly, s.ContinuousDetectionMode)
}

func TestSettingsSaveLoadRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.VelocityIterations = 10
	s.LinearSleepTolerance = 0.05

	path := filepath.Join(t.TempDir(), "settings.yaml")
	assert.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path)
	assert.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSettingsMissingFileReturnsInvalidArgumentError(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	var physErr *Error
	assert.ErrorAs(t, err, &physErr)
	assert.Equal(t, ErrInvalidArgument, physErr.Kind)
}

func TestSolverConfigCarriesGravityAndTuning(t *testing.T) {
	s := DefaultSettings()
	cfg := s.solverConfig(Vec2{0, -9.8})
	assert.Equal(t, Vec2{0, -9.8}, cfg.Gravity)
	assert.Equal(t, s.VelocityIterations, cfg.VelocityIterations)
	assert.Equal(t, s.MaxLinearCorrection, cfg.MaxLinearCorrection)
}
