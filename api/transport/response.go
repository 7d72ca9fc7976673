package transport

import (
	"encoding/json"

	"github.com/fastygo/datewheel/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

// ListMeta accompanies list payloads.
type ListMeta struct {
	Count int `json:"count"`
}

// PoolResponse describes the wheel as the renderer sees it.
type PoolResponse struct {
	Activities []domain.Activity `json:"activities"`
	IDs        []string          `json:"ids"`
	Size       int               `json:"size"`
	CanDraw    bool              `json:"canDraw"`
	MinSize    int               `json:"minSize"`
	MaxSize    int               `json:"maxSize"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data any, meta any) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err any, meta any) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
