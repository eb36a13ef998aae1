package api

import (
	"encoding/json"
	"fmt"
)

// Envelope is the outbound wire unit: an action (endpoint plus verb),
// caller-supplied params, and a meta block that always carries the
// request id and may carry caller metadata.
type Envelope struct {
	Action [2]string      `json:"action"`
	Params map[string]any `json:"params,omitempty"`
	Meta   map[string]any `json:"meta"`
}

// frame carries the fields the dispatch loop needs to route an inbound
// message: the optional top-level status of error frames, the request id
// of correlated replies, and the API version advertised by the hello.
type frame struct {
	Status int `json:"status,omitempty"`
	Meta   struct {
		RequestID string  `json:"request_id"`
		Version   *string `json:"API-Version"`
	} `json:"meta"`
}

// parseFrame decodes an inbound frame's routing fields. The full raw
// payload is what gets filed and returned to callers; this only peeks at
// the parts needed for correlation.
func parseFrame(data []byte) (*frame, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse API message: %w", err)
	}
	return &f, nil
}
