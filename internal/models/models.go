package models

import "github.com/example/ride-sim/internal/geo"

// RiderStatus is where a rider is in their lifecycle. Waiting is the only
// non-terminal status.
type RiderStatus string

const (
	StatusWaiting   RiderStatus = "waiting"
	StatusCancelled RiderStatus = "cancelled"
	StatusSatisfied RiderStatus = "satisfied"
)

// Rider asks for a ride from Origin to Destination and gives up after
// Patience time units. Status only moves through Cancel and Satisfy.
type Rider struct {
	ID          string       `json:"id"`
	Origin      geo.Location `json:"origin"`
	Destination geo.Location `json:"destination"`
	Patience    int          `json:"patience"`
	status      RiderStatus
}

// NewRider returns a waiting rider.
func NewRider(id string, origin, destination geo.Location, patience int) *Rider {
	return &Rider{ID: id, Origin: origin, Destination: destination, Patience: patience, status: StatusWaiting}
}

func (r *Rider) String() string { return r.ID }

func (r *Rider) Status() RiderStatus { return r.status }

// Equal compares every field, including status.
func (r *Rider) Equal(o *Rider) bool {
	if r == nil || o == nil {
		return r == o
	}
	return *r == *o
}

// Cancel moves a rider that has not been picked up to cancelled. It reports
// whether the status changed.
func (r *Rider) Cancel() bool {
	if r.status == StatusSatisfied || r.status == StatusCancelled {
		return false
	}
	r.status = StatusCancelled
	return true
}

// Satisfy marks a waiting rider as picked up. It reports whether the status
// changed.
func (r *Rider) Satisfy() bool {
	if r.status != StatusWaiting {
		return false
	}
	r.status = StatusSatisfied
	return true
}
