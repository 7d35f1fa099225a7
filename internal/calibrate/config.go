package calibrate

// Config holds the solver settings for offline calibration.
type Config struct {
	// MaxIterations bounds the number of full sweeps over students and items.
	MaxIterations int `yaml:"max_iterations" validate:"gte=1"`

	// Tolerance stops the solver once no weight moves more than this in a sweep.
	Tolerance float64 `yaml:"tolerance" validate:"gt=0"`

	// L2 is the ridge penalty on every weight. It keeps students and items
	// with unanimous outcomes at a finite value. Default: 0.01.
	L2 float64 `yaml:"l2" validate:"gte=0"`

	// MaxStep caps a single Newton step. Default: 1.
	MaxStep float64 `yaml:"max_step" validate:"gt=0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 500,
		Tolerance:     1e-6,
		L2:            0.01,
		MaxStep:       1,
	}
}
