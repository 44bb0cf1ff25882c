package torbox

import (
	"encoding/json"
)

// envelope is the shape every TorBox endpoint answers with.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	Data    T      `json:"data"`
}

// Result is either a successful payload or a failure detail, never both.
type Result[T any] struct {
	Data   T
	Detail string
	Failed bool
}

func decodeResult[T any](endpoint string, body []byte) (Result[T], error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return Result[T]{}, &APIError{Endpoint: endpoint, Detail: err.Error(), Err: ErrMalformedResponse}
	}

	if !env.Success {
		return Result[T]{Detail: env.Detail, Failed: true}, nil
	}

	return Result[T]{Data: env.Data, Detail: env.Detail}, nil
}

// Err converts a failed result into an APIError.
func (r Result[T]) Err(endpoint string) error {
	if !r.Failed {
		return nil
	}
	return &APIError{Endpoint: endpoint, Detail: r.Detail, Err: ErrMalformedResponse}
}

// CreatedTorrent is the payload of a successful createtorrent call.
type CreatedTorrent struct {
	Hash string `json:"hash"`
}

// Torrent is one entry of the active or queued listings. Only the hash is relied upon.
type Torrent struct {
	Hash string `json:"hash"`
	Name string `json:"name"`
}
