package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/jobgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	All map[string]string
}

// OnRunEnvVars is the handler for the 'env_vars' runner.
func OnRunEnvVars(ctx context.Context, _ any) (any, error) {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}

	return &Output{All: envMap}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("env_vars", &registry.Handler{
		// No 'arguments' block.
		NewInput: nil,
		Fn:       OnRunEnvVars,
	})
}
