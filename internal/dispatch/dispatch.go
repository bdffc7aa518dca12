package dispatch

import (
	"strings"

	"github.com/example/ride-sim/internal/models"
)

// Dispatcher pairs riders with drivers. Drivers register on their first
// request and stay registered; riders that arrive before any driver exists
// wait in a FIFO list.
//
// A Dispatcher never changes driver or rider state. Callers mark the chosen
// driver busy before asking again.
type Dispatcher struct {
	drivers []*models.Driver
	waiting []*models.Rider
}

func New() *Dispatcher { return &Dispatcher{} }

// RequestDriver returns the idle registered driver that can reach the
// rider's origin soonest, or nil. Ties go to the earliest registration.
//
// Only when no driver has ever registered is the rider put on the waiting
// list; a rider turned away because every driver is busy is not queued.
func (d *Dispatcher) RequestDriver(r *models.Rider) *models.Driver {
	if len(d.drivers) == 0 {
		d.waiting = append(d.waiting, r)
		return nil
	}
	var best *models.Driver
	bestTime := 0
	for _, drv := range d.drivers {
		if !drv.IsIdle() {
			continue
		}
		if t := drv.TravelTime(r.Origin); best == nil || t < bestTime {
			best, bestTime = drv, t
		}
	}
	return best
}

// RequestRider registers drv if it is new and hands it the rider that has
// waited longest, or nil.
func (d *Dispatcher) RequestRider(drv *models.Driver) *models.Rider {
	if !d.registered(drv) {
		d.drivers = append(d.drivers, drv)
	}
	if len(d.waiting) == 0 {
		return nil
	}
	r := d.waiting[0]
	d.waiting[0] = nil
	d.waiting = d.waiting[1:]
	return r
}

// CancelRide drops r from the waiting list. It is a no-op when r is not
// waiting there.
func (d *Dispatcher) CancelRide(r *models.Rider) {
	for i, w := range d.waiting {
		if w.Equal(r) {
			d.waiting = append(d.waiting[:i:i], d.waiting[i+1:]...)
			return
		}
	}
}

// Drivers returns the registered drivers in registration order.
func (d *Dispatcher) Drivers() []*models.Driver {
	out := make([]*models.Driver, len(d.drivers))
	copy(out, d.drivers)
	return out
}

// Waiting returns the waiting riders, oldest first.
func (d *Dispatcher) Waiting() []*models.Rider {
	out := make([]*models.Rider, len(d.waiting))
	copy(out, d.waiting)
	return out
}

func (d *Dispatcher) String() string {
	var b strings.Builder
	b.WriteString("Riders:\n")
	for _, r := range d.waiting {
		b.WriteString(" " + r.String() + "\n")
	}
	b.WriteString("Drivers:\n")
	for _, drv := range d.drivers {
		b.WriteString(" " + drv.String() + "\n")
	}
	return b.String()
}

func (d *Dispatcher) registered(drv *models.Driver) bool {
	for _, known := range d.drivers {
		if known.Equal(drv) {
			return true
		}
	}
	return false
}
