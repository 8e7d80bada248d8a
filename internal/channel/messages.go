// Package channel implements the two-message snapshot protocol between a
// viewer and the authority: a DataRequest is answered by exactly one
// DataResponse carrying the whole persisted document.
package channel

import (
	"context"
	"errors"
)

// DefaultName is the logical channel the temperature history is served on.
const DefaultName = "temperaturemonitor"

var (
	// ErrChannelUnavailable is returned when the channel is not registered or
	// cannot be reached. It is reported synchronously and never retried.
	ErrChannelUnavailable = errors.New("channel unavailable")
	// ErrInvalidName rejects empty channel names.
	ErrInvalidName = errors.New("invalid channel name")
)

// DataRequest asks for the current snapshot. The request id only correlates
// log lines; the payload is otherwise empty.
type DataRequest struct {
	RequestID string `json:"requestId,omitempty"`
}

// DataResponse answers a DataRequest. Success=false with an empty document
// means there is no data file or it could not be read.
type DataResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Document  string `json:"document"`
}

// NoData builds the failure response for id.
func NoData(id string) DataResponse {
	return DataResponse{RequestID: id, Success: false, Document: ""}
}

// Handler answers one request synchronously.
type Handler func(ctx context.Context, req DataRequest) DataResponse

// SnapshotSource yields the current snapshot document.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// SnapshotHandler serves documents from src. Errors and empty documents map
// to a no-data response.
func SnapshotHandler(src SnapshotSource) Handler {
	return func(ctx context.Context, req DataRequest) DataResponse {
		doc, err := src.Snapshot(ctx)
		if err != nil || len(doc) == 0 {
			return NoData(req.RequestID)
		}
		return DataResponse{RequestID: req.RequestID, Success: true, Document: string(doc)}
	}
}
