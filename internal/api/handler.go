package api

import (
	"context"
	"encoding/json"
)

// API versions with a handler variant.
const (
	VersionV20 = "v2.0"
	VersionV21 = "v2.1"
)

// Resource is an addressable business object whose state can be pushed to
// the API. Implementations serialize themselves either fully or as a diff
// of changes since the last push.
type Resource interface {
	// ID returns the resource's stable identifier. ok is false while the
	// API has not assigned one yet.
	ID() (id string, ok bool)
	// Snapshot serializes the resource: the full state when full is true,
	// otherwise only fields changed since the last sync.
	Snapshot(full bool) map[string]any
}

// pushFunc is the overridable resource-push operation of a handler variant.
type pushFunc func(ctx context.Context, h *Handler, r Resource, full bool) (json.RawMessage, error)

// Handler is a version-tagged client variant. Each variant declares a fixed
// API version, checked against the server's hello at connect time, and a
// push operation selected at construction. A version bump alone does not
// change behavior: v2.1 inherits the v2.0 push unchanged.
type Handler struct {
	*Client
	push pushFunc
}

// NewHandlerV20 creates a handler for API v2.0.
func NewHandlerV20(cfg Config) *Handler {
	return newHandler(cfg, VersionV20, pushRescue)
}

// NewHandlerV21 creates a handler for API v2.1.
func NewHandlerV21(cfg Config) *Handler {
	return newHandler(cfg, VersionV21, pushRescue)
}

func newHandler(cfg Config, version string, push pushFunc) *Handler {
	cfg.Version = version
	return &Handler{Client: New(cfg), push: push}
}

// UpdateRescue pushes a rescue case's state to the API and returns the
// server's reply verbatim. Fails with ErrMissingIdentifier, before any
// frame is sent, when the case has no id to address the update to.
func (h *Handler) UpdateRescue(ctx context.Context, r Resource, full bool) (json.RawMessage, error) {
	return h.push(ctx, h, r, full)
}

func pushRescue(ctx context.Context, h *Handler, r Resource, full bool) (json.RawMessage, error) {
	id, ok := r.ID()
	if !ok {
		return nil, ErrMissingIdentifier
	}
	return h.Call(ctx, "rescues", "update", map[string]any{
		"id":   id,
		"data": r.Snapshot(full),
	}, nil)
}
