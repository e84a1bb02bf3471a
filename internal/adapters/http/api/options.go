package api

// Default handler configuration.
const (
	defaultMaxListLimit   = 100
	defaultMaxDatasetRows = 100_000
	defaultMaxDatasetCols = 200
)

type config struct {
	maxListLimit   int
	maxDatasetRows int
	maxDatasetCols int
}

// Option applies a configuration option to the Server.
type Option func(*config)

// WithMaxListLimit caps the limit accepted by GET /explanations.
func WithMaxListLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxListLimit = n
		}
	}
}

// WithMaxDatasetSize caps the rows and columns accepted in an uploaded
// dataset.
func WithMaxDatasetSize(rows, cols int) Option {
	return func(c *config) {
		if rows > 0 {
			c.maxDatasetRows = rows
		}
		if cols > 0 {
			c.maxDatasetCols = cols
		}
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		maxListLimit:   defaultMaxListLimit,
		maxDatasetRows: defaultMaxDatasetRows,
		maxDatasetCols: defaultMaxDatasetCols,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
