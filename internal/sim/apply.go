package sim

import (
	"math"

	"github.com/example/ride-sim/internal/models"
	"github.com/example/ride-sim/internal/monitor"
	"github.com/example/ride-sim/internal/observability"
)

// riderRequest always schedules the rider's cancellation; a matched driver
// also starts towards the rider.
func (s *Simulation) riderRequest(e RiderRequest) []Event {
	r := e.Rider
	s.monitor.Notify(e.Time, monitor.Rider, monitor.Request, r.ID, r.Origin)

	var out []Event
	if drv := s.dispatcher.RequestDriver(r); drv != nil {
		observability.MatchesTotal.Inc()
		out = append(out, Pickup{Time: after(e.Time, drv.StartDrive(r.Origin)), Rider: r, Driver: drv})
	}
	return append(out, Cancellation{Time: after(e.Time, r.Patience), Rider: r})
}

func (s *Simulation) driverRequest(e DriverRequest) []Event {
	drv := e.Driver
	s.monitor.Notify(e.Time, monitor.Driver, monitor.Request, drv.ID, drv.Location)

	r := s.dispatcher.RequestRider(drv)
	if r == nil {
		return nil
	}
	observability.MatchesTotal.Inc()
	return []Event{Pickup{Time: after(e.Time, drv.StartDrive(r.Origin)), Rider: r, Driver: drv}}
}

// cancellation is a no-op once the rider has been picked up.
func (s *Simulation) cancellation(e Cancellation) []Event {
	r := e.Rider
	if !r.Cancel() {
		return nil
	}
	observability.CancellationsTotal.Inc()
	s.monitor.Notify(e.Time, monitor.Rider, monitor.Cancel, r.ID, r.Origin)
	s.dispatcher.CancelRide(r)
	return nil
}

// pickup ends the drive. A rider who already gave up sends the driver
// straight back to the dispatcher at the same timestamp.
func (s *Simulation) pickup(e Pickup) []Event {
	drv, r := e.Driver, e.Rider
	drv.EndDrive()
	s.monitor.Notify(e.Time, monitor.Driver, monitor.Pickup, drv.ID, drv.Location)

	if r.Status() != models.StatusWaiting {
		return []Event{DriverRequest{Time: e.Time, Driver: drv}}
	}
	s.monitor.Notify(e.Time, monitor.Rider, monitor.Pickup, r.ID, r.Origin)
	rideTime := drv.StartRide(r)
	r.Satisfy()
	return []Event{Dropoff{Time: after(e.Time, rideTime), Rider: r, Driver: drv}}
}

func (s *Simulation) dropoff(e Dropoff) []Event {
	drv, r := e.Driver, e.Rider
	s.monitor.Notify(e.Time, monitor.Rider, monitor.Dropoff, r.ID, r.Destination)
	s.monitor.Notify(e.Time, monitor.Driver, monitor.Dropoff, drv.ID, r.Destination)
	drv.EndRide()
	return []Event{DriverRequest{Time: e.Time, Driver: drv}}
}

// after is t+d clamped to math.MaxInt, so a follow-up can never be scheduled
// before the event that caused it.
func after(t, d int) int {
	if d > 0 && t > math.MaxInt-d {
		return math.MaxInt
	}
	return t + d
}
