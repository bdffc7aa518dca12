package sim

import (
	"fmt"

	"github.com/example/ride-sim/internal/models"
)

// Kind names an event variant.
type Kind string

const (
	KindRiderRequest  Kind = "rider_request"
	KindDriverRequest Kind = "driver_request"
	KindCancellation  Kind = "cancellation"
	KindPickup        Kind = "pickup"
	KindDropoff       Kind = "dropoff"
)

// Event is one step of the simulation. The set of variants is closed: only
// the types in this file implement it.
type Event interface {
	Timestamp() int
	Kind() Kind
	String() string
	isEvent()
}

// RiderRequest is a rider asking for a driver.
type RiderRequest struct {
	Time  int
	Rider *models.Rider
}

// DriverRequest is a driver asking for a rider. The first one registers the
// driver with the dispatcher.
type DriverRequest struct {
	Time   int
	Driver *models.Driver
}

// Cancellation fires when a rider's patience runs out.
type Cancellation struct {
	Time  int
	Rider *models.Rider
}

// Pickup is a driver arriving at a rider's origin.
type Pickup struct {
	Time   int
	Rider  *models.Rider
	Driver *models.Driver
}

// Dropoff is a driver arriving at a rider's destination.
type Dropoff struct {
	Time   int
	Rider  *models.Rider
	Driver *models.Driver
}

func (e RiderRequest) Timestamp() int  { return e.Time }
func (e DriverRequest) Timestamp() int { return e.Time }
func (e Cancellation) Timestamp() int  { return e.Time }
func (e Pickup) Timestamp() int        { return e.Time }
func (e Dropoff) Timestamp() int       { return e.Time }

func (RiderRequest) Kind() Kind  { return KindRiderRequest }
func (DriverRequest) Kind() Kind { return KindDriverRequest }
func (Cancellation) Kind() Kind  { return KindCancellation }
func (Pickup) Kind() Kind        { return KindPickup }
func (Dropoff) Kind() Kind       { return KindDropoff }

func (e RiderRequest) String() string {
	return fmt.Sprintf("%d -- %s: Request a driver", e.Time, e.Rider)
}

func (e DriverRequest) String() string {
	return fmt.Sprintf("%d -- %s: Request a rider", e.Time, e.Driver)
}

func (e Cancellation) String() string {
	return fmt.Sprintf("%d -- %s: Cancel request", e.Time, e.Rider)
}

func (e Pickup) String() string {
	return fmt.Sprintf("%d -- %s: Pickup %s", e.Time, e.Driver, e.Rider)
}

func (e Dropoff) String() string {
	return fmt.Sprintf("%d -- %s: Dropoff %s", e.Time, e.Driver, e.Rider)
}

func (RiderRequest) isEvent()  {}
func (DriverRequest) isEvent() {}
func (Cancellation) isEvent()  {}
func (Pickup) isEvent()        {}
func (Dropoff) isEvent()       {}

// TraceRecord is the wire form of a processed event for trace sinks.
type TraceRecord struct {
	Timestamp int    `json:"timestamp"`
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
}

func RecordOf(e Event) TraceRecord {
	return TraceRecord{Timestamp: e.Timestamp(), Kind: e.Kind(), Message: e.String()}
}
