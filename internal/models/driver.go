package models

import (
	"errors"
	"fmt"

	"github.com/example/ride-sim/internal/geo"
)

// ErrNoDestination is the panic payload when a drive or ride is ended on a
// driver that is not going anywhere.
var ErrNoDestination = errors.New("driver has no destination")

// Driver moves around the grid at Speed cells per time unit. A driver is
// idle exactly when it has no destination.
type Driver struct {
	ID       string
	Location geo.Location
	Speed    int

	idle        bool
	destination *geo.Location
}

// NewDriver returns an idle driver. speed must be positive.
func NewDriver(id string, loc geo.Location, speed int) *Driver {
	return &Driver{ID: id, Location: loc, Speed: speed, idle: true}
}

func (d *Driver) String() string { return d.ID }

func (d *Driver) IsIdle() bool { return d.idle }

// Destination returns where the driver is heading, if anywhere.
func (d *Driver) Destination() (geo.Location, bool) {
	if d.destination == nil {
		return geo.Location{}, false
	}
	return *d.destination, true
}

// Equal is a snapshot comparison of id, location and idle flag.
func (d *Driver) Equal(o *Driver) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.ID == o.ID && d.Location == o.Location && d.idle == o.idle
}

// TravelTime is the whole number of time units needed to reach to, rounded
// down.
func (d *Driver) TravelTime(to geo.Location) int {
	return geo.Distance(d.Location, to) / d.Speed
}

// StartDrive sends the driver towards a rider's origin and returns the drive
// time.
func (d *Driver) StartDrive(to geo.Location) int {
	d.depart(to)
	return d.TravelTime(to)
}

// EndDrive puts the driver at its destination and makes it idle.
func (d *Driver) EndDrive() { d.arrive("drive") }

// StartRide carries the rider to their destination and returns the ride time.
func (d *Driver) StartRide(r *Rider) int {
	d.depart(r.Destination)
	return d.TravelTime(r.Destination)
}

// EndRide drops the rider off at the destination and makes the driver idle.
func (d *Driver) EndRide() { d.arrive("ride") }

func (d *Driver) depart(to geo.Location) {
	dest := to
	d.destination = &dest
	d.idle = false
}

func (d *Driver) arrive(leg string) {
	if d.destination == nil {
		panic(fmt.Errorf("driver %s: end %s: %w", d.ID, leg, ErrNoDestination))
	}
	d.Location = *d.destination
	d.destination = nil
	d.idle = true
}
