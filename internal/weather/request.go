package weather

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RequestState is the lifecycle state of an asynchronous fetch.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestSucceeded RequestState = "succeeded"
	RequestFailed    RequestState = "failed"
	RequestCancelled RequestState = "cancelled"
)

// RequestStatus is a point-in-time copy of a Request.
type RequestStatus struct {
	ID       string
	Location string
	State    RequestState
	Forecast Forecast
	Err      error
}

// Request is the handle of one Fetch call.
type Request struct {
	id       string
	location string
	seq      uint64
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.Mutex
	state    RequestState
	forecast Forecast
	err      error
}

func newRequest(location string, seq uint64, cancel context.CancelFunc) *Request {
	return &Request{
		id:       uuid.NewString(),
		location: location,
		seq:      seq,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    RequestPending,
	}
}

// ID returns the request's unique identifier.
func (r *Request) ID() string { return r.id }

// Location returns the location string the request was issued for.
func (r *Request) Location() string { return r.location }

// Done is closed once the request is cancelled or its callback has returned.
func (r *Request) Done() <-chan struct{} { return r.done }

// Cancel aborts the request. It returns true when it prevented the callback from firing and
// false when the request had already completed.
func (r *Request) Cancel() bool {
	r.mu.Lock()
	if r.state != RequestPending {
		r.mu.Unlock()
		return false
	}
	r.state = RequestCancelled
	r.mu.Unlock()

	r.cancel()
	close(r.done)
	return true
}

// Status returns a snapshot of the request.
func (r *Request) Status() RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RequestStatus{
		ID:       r.id,
		Location: r.location,
		State:    r.state,
		Forecast: r.forecast,
		Err:      r.err,
	}
}

// complete records the outcome. It returns false when the request was cancelled first, in
// which case no callback may fire.
func (r *Request) complete(f Forecast, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RequestPending {
		return false
	}
	if err != nil {
		r.state = RequestFailed
		r.err = err
	} else {
		r.state = RequestSucceeded
		r.forecast = f
	}
	return true
}

func (r *Request) finish() {
	close(r.done)
}
