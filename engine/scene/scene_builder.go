package scene

type loaderConfig struct {
	workers int
}

// LoaderOption is a functional option used to configure LoadSceneObjects.
type LoaderOption func(*loaderConfig)

// WithWorkers sets how many workers pack meshes in parallel.
//
// Parameters:
//   - n: the worker count; values below 1 are treated as 1
//
// Returns:
//   - LoaderOption: a function that sets the worker count
func WithWorkers(n int) LoaderOption {
	return func(c *loaderConfig) {
		c.workers = max(n, 1)
	}
}
