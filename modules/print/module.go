package print

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print runner.
type Input struct {
	Message string            `hcl:"message,optional"`
	Values  map[string]string `hcl:"values,optional"`
}

// OnRunPrint is the handler for the 'print' runner.
func OnRunPrint(ctx context.Context, inputRaw any) (any, error) {
	input := inputRaw.(*Input)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Printing input")

	if input.Message != "" {
		fmt.Printf("      %s\n", input.Message)
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(input.Values))
	for k := range input.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("      %s = %q\n", k, input.Values[k])
	}

	return nil, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("print", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPrint,
	})
}
