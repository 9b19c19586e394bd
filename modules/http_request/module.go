package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	URL    string `hcl:"url"`
	Method string `hcl:"method,optional"`
}

// OnRunHttpRequest is the handler for the 'http_request' runner.
func OnRunHttpRequest(ctx context.Context, inputRaw any) (any, error) {
	input := inputRaw.(*Input)
	logger := ctxlog.FromContext(ctx)

	method := input.Method
	if method == "" {
		method = http.MethodGet
	}
	logger.Info("Making HTTP request", "method", method, "url", input.URL)

	req, err := http.NewRequestWithContext(ctx, method, input.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"body":        cty.StringVal(string(bodyBytes)),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("http_request", &registry.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunHttpRequest,
	})
}
