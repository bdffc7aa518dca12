package monitor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/example/ride-sim/internal/geo"
)

func loc(r, c int) geo.Location { return geo.Location{Row: r, Column: c} }

func TestNotifyAppendsInOrder(t *testing.T) {
	m := New()
	m.Notify(5, Rider, Request, "r1", loc(0, 0))
	m.Notify(3, Rider, Cancel, "r1", loc(0, 0))
	m.Notify(1, Driver, Request, "d1", loc(1, 1))

	acts := m.Activities(Rider, "r1")
	if len(acts) != 2 || acts[0].Description != Request || acts[1].Timestamp != 3 {
		t.Fatalf("unexpected log %+v", acts)
	}
	if got := m.Actors(Driver); len(got) != 1 || got[0] != "d1" {
		t.Fatalf("unexpected drivers %v", got)
	}
	if m.String() != "Monitor (1 drivers, 1 riders)" {
		t.Fatalf("unexpected rendering %q", m.String())
	}
}

func TestReportWaitTimeSkipsUnresolvedRiders(t *testing.T) {
	m := New()
	m.Notify(2, Rider, Request, "r1", loc(0, 0))
	m.Notify(5, Rider, Pickup, "r1", loc(0, 0))
	m.Notify(1, Rider, Request, "r2", loc(0, 0))
	m.Notify(9, Rider, Cancel, "r2", loc(0, 0))
	m.Notify(4, Rider, Request, "r3", loc(0, 0))
	m.Notify(0, Driver, Request, "d", loc(0, 0))

	if got := m.Report().RiderWaitTime; got != 5.5 {
		t.Fatalf("expected 5.5, got %v", got)
	}
}

func TestReportDistances(t *testing.T) {
	m := New()
	// completed ride: drive 4, ride 7
	m.Notify(3, Driver, Request, "d1", loc(0, 4))
	m.Notify(3, Driver, Pickup, "d1", loc(0, 0))
	m.Notify(3, Driver, Dropoff, "d1", loc(3, 4))
	m.Notify(3, Driver, Request, "d1", loc(3, 4))
	// pickup of a cancelled rider: drive 2, no ride
	m.Notify(1, Driver, Request, "d2", loc(0, 0))
	m.Notify(2, Driver, Pickup, "d2", loc(1, 1))
	m.Notify(2, Driver, Request, "d2", loc(1, 1))

	rep := m.Report()
	if rep.DriverTotalDistance != 6.5 {
		t.Fatalf("expected total 6.5, got %v", rep.DriverTotalDistance)
	}
	if rep.DriverRideDistance != 3.5 {
		t.Fatalf("expected ride 3.5, got %v", rep.DriverRideDistance)
	}
}

func TestReportEmptyIsNaN(t *testing.T) {
	rep := New().Report()
	if !math.IsNaN(rep.RiderWaitTime) || !math.IsNaN(rep.DriverTotalDistance) || !math.IsNaN(rep.DriverRideDistance) {
		t.Fatalf("expected NaN statistics, got %+v", rep)
	}
	if !rep.Equal(New().Report()) {
		t.Fatal("NaN reports should compare equal")
	}
}

func TestReportJSONNullsNaN(t *testing.T) {
	rep := Report{RiderWaitTime: 1, DriverTotalDistance: math.NaN(), DriverRideDistance: 7}
	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"rider_wait_time":1,"driver_total_distance":null,"driver_ride_distance":7}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
	var back Report
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(rep) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestUnknownCategoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown category")
		}
	}()
	New().Notify(0, Category("bus"), Request, "b", loc(0, 0))
}
