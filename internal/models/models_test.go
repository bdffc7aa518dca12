package models

import (
	"errors"
	"testing"

	"github.com/example/ride-sim/internal/geo"
)

func TestRiderEqual(t *testing.T) {
	r := NewRider("r1", geo.Location{Row: 0, Column: 0}, geo.Location{Row: 3, Column: 4}, 3)
	r1 := NewRider("r1", geo.Location{Row: 0, Column: 0}, geo.Location{Row: 3, Column: 4}, 3)
	r2 := NewRider("r2", geo.Location{Row: 3, Column: 0}, geo.Location{Row: 3, Column: 4}, 3)
	if !r.Equal(r1) {
		t.Fatal("expected riders with identical fields to be equal")
	}
	if r.Equal(r2) {
		t.Fatal("expected different riders to differ")
	}
	r1.Cancel()
	if r.Equal(r1) {
		t.Fatal("status must take part in equality")
	}
}

func TestRiderStatusIsMonotone(t *testing.T) {
	r := NewRider("r", geo.Location{}, geo.Location{Row: 1}, 2)
	if !r.Satisfy() {
		t.Fatal("waiting rider should be satisfiable")
	}
	if r.Cancel() {
		t.Fatal("satisfied rider must not be cancelled")
	}
	if r.Status() != StatusSatisfied {
		t.Fatalf("expected satisfied, got %s", r.Status())
	}

	c := NewRider("c", geo.Location{}, geo.Location{Row: 1}, 2)
	if c.Status() != StatusWaiting {
		t.Fatalf("new rider should be waiting, got %s", c.Status())
	}
	if !c.Cancel() {
		t.Fatal("waiting rider should be cancellable")
	}
	if c.Satisfy() || c.Cancel() {
		t.Fatal("cancelled rider must stay cancelled")
	}
	if c.Status() != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", c.Status())
	}
}

func TestDriverEqual(t *testing.T) {
	d := NewDriver("d1", geo.Location{Row: 0, Column: 4}, 10)
	d1 := NewDriver("d1", geo.Location{Row: 0, Column: 4}, 10)
	d2 := NewDriver("d2", geo.Location{Row: 0, Column: 4}, 10)
	if !d.Equal(d1) {
		t.Fatal("expected equal drivers")
	}
	if d.Equal(d2) {
		t.Fatal("expected different ids to differ")
	}
	d1.StartDrive(geo.Location{Row: 1, Column: 1})
	if d.Equal(d1) {
		t.Fatal("idle flag must take part in equality")
	}
}

func TestTravelTimeTruncates(t *testing.T) {
	d := NewDriver("Bob", geo.Location{Row: 5, Column: 5}, 10)
	if got := d.TravelTime(geo.Location{Row: 10, Column: 10}); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := d.TravelTime(geo.Location{Row: 5, Column: 14}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestDriveLifecycle(t *testing.T) {
	d := NewDriver("d1", geo.Location{Row: 0, Column: 4}, 10)
	if _, ok := d.Destination(); ok || !d.IsIdle() {
		t.Fatal("new driver must be idle with no destination")
	}
	if got := d.StartDrive(geo.Location{Row: 9, Column: 5}); got != 1 {
		t.Fatalf("expected drive time 1, got %d", got)
	}
	dest, ok := d.Destination()
	if !ok || dest != (geo.Location{Row: 9, Column: 5}) || d.IsIdle() {
		t.Fatalf("driving driver: dest=%v ok=%v idle=%v", dest, ok, d.IsIdle())
	}
	d.EndDrive()
	if d.Location != (geo.Location{Row: 9, Column: 5}) {
		t.Fatalf("expected driver at 9,5, got %v", d.Location)
	}
	if _, ok := d.Destination(); ok || !d.IsIdle() {
		t.Fatal("arrived driver must be idle with no destination")
	}
}

func TestRideLifecycle(t *testing.T) {
	d := NewDriver("d1", geo.Location{Row: 0, Column: 4}, 10)
	r := NewRider("r", geo.Location{}, geo.Location{Row: 9, Column: 1}, 12)
	if got := d.StartRide(r); got != 1 {
		t.Fatalf("expected ride time 1, got %d", got)
	}
	if d.Location != (geo.Location{Row: 0, Column: 4}) {
		t.Fatal("location must not change until the ride ends")
	}
	d.EndRide()
	if d.Location != r.Destination || !d.IsIdle() {
		t.Fatalf("expected idle at %v, got %v idle=%v", r.Destination, d.Location, d.IsIdle())
	}
}

func TestEndWithoutDestinationPanics(t *testing.T) {
	d := NewDriver("d1", geo.Location{}, 1)
	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrNoDestination) {
			t.Fatalf("expected ErrNoDestination panic, got %v", rec)
		}
	}()
	d.EndRide()
}
