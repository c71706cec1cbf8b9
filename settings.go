package physics

import (
	"os"

	"gopkg.in/yaml.v3"
)

// settings.go implements the tunables of spec.md §6, persisted via
// yaml.v3, grounded on the teacher's `Space` tunables (`Iterations`,
// `collisionSlop`, `SleepTimeThreshold`, `damping` fields set through
// `space.SetIterations`/`SetCollisionSlop`/`SetSleepTimeThreshold` in
// space.go).
type Settings struct {
	StepFrequency float64 `yaml:"step_frequency"`

	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`

	LinearSleepTolerance  float64 `yaml:"linear_sleep_tolerance"`
	AngularSleepTolerance float64 `yaml:"angular_sleep_tolerance"`
	MinimumAtRestTime     float64 `yaml:"minimum_at_rest_time"`

	MaxLinearCorrection  float64 `yaml:"max_linear_correction"`
	MaxAngularCorrection float64 `yaml:"max_angular_correction"`
	Baumgarte            float64 `yaml:"baumgarte"`

	DefaultRestitutionVelocityThreshold float64 `yaml:"default_restitution_velocity_threshold"`

	ContinuousDetectionMode ContinuousDetectionMode `yaml:"continuous_detection_mode"`

	BroadphaseFatAABBMargin float64 `yaml:"broadphase_fat_aabb_margin"`
}

// DefaultSettings returns the conventional tuning used by most 2D
// engines in this space: a 60Hz step with 6 velocity and 2 position
// solver iterations.
func DefaultSettings() Settings {
	return Settings{
		StepFrequency:                       1.0 / 60.0,
		VelocityIterations:                  6,
		PositionIterations:                  2,
		LinearSleepTolerance:                0.01,
		AngularSleepTolerance:                2.0 * (1.0 / 180.0) * 3.14159265358979,
		MinimumAtRestTime:                    0.5,
		MaxLinearCorrection:                  0.2,
		MaxAngularCorrection:                 0.1308996939,
		Baumgarte:                            0.2,
		DefaultRestitutionVelocityThreshold:  1.0,
		ContinuousDetectionMode:              ContinuousDetectionBulletsOnly,
		BroadphaseFatAABBMargin:              defaultFatAABBMargin,
	}
}

func (s Settings) solverConfig(gravity Vec2) solverConfig {
	return solverConfig{
		Gravity:               gravity,
		VelocityIterations:    s.VelocityIterations,
		PositionIterations:    s.PositionIterations,
		LinearSleepTolerance:  s.LinearSleepTolerance,
		AngularSleepTolerance: s.AngularSleepTolerance,
		MinimumAtRestTime:     s.MinimumAtRestTime,
		MaxLinearCorrection:   s.MaxLinearCorrection,
	}
}

// LoadSettings reads a Settings document from a yaml file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, newError(ErrInvalidArgument, "read settings file %q: %v", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, newError(ErrInvalidArgument, "parse settings file %q: %v", path, err)
	}
	return s, nil
}

// Save writes s to path as yaml.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
