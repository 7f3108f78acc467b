// Package provider defines the interface between membank and LLM backends.
// Concrete implementations live under modules/provider and register
// themselves as core modules.
package provider

import "context"

// Provider is the narrow generation capability the memory bank depends on.
// Calls are synchronous: Complete blocks until the model returns a full
// response or an error. Cancellation and deadlines come from the context.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
