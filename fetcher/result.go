package fetcher

import "github.com/ytget/mediadl/types"

// Result is the outcome of a metadata request: either Fetched or Failed.
// The set is closed; callers type-switch on it.
type Result interface {
	// Err returns nil for Fetched and the failure reason for Failed.
	Err() error
	result()
}

// Fetched carries the payload returned by the metadata API.
type Fetched struct {
	Payload types.Payload
}

// Err implements Result.
func (Fetched) Err() error { return nil }

func (Fetched) result() {}

// Failed describes why no usable payload was obtained. Message is the
// human-readable text (the API's own "msg" when it supplied one); Reason wraps
// one of the errs sentinels.
type Failed struct {
	Reason  error
	Message string
}

// Err implements Result.
func (f Failed) Err() error { return f.Reason }

func (Failed) result() {}

// Payload returns the payload of a Fetched result.
func Payload(r Result) (types.Payload, bool) {
	f, ok := r.(Fetched)
	if !ok {
		return nil, false
	}
	return f.Payload, true
}
