package importance

// Defaults for permutation importance.
const (
	DefaultRounds  = 10
	DefaultSampleN = 1000
)

type config struct {
	variables []string
	rounds    int
	sampleN   int
	seed      int64
}

// Option applies a configuration option to Compute.
type Option func(*config)

// WithVariables selects the variables to permute. Default: all variables.
func WithVariables(variables []string) Option {
	return func(c *config) {
		c.variables = append([]string(nil), variables...)
	}
}

// WithRounds sets the number of permutation rounds per variable.
// Default 10.
func WithRounds(b int) Option {
	return func(c *config) {
		if b > 0 {
			c.rounds = b
		}
	}
}

// WithSampleN sets the number of rows scored. Default 1000; datasets
// smaller than N are used whole.
func WithSampleN(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.sampleN = n
		}
	}
}

// WithSeed fixes the shuffling seed for reproducible output.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		rounds:  DefaultRounds,
		sampleN: DefaultSampleN,
		seed:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
