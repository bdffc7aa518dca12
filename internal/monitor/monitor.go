// Package monitor records what riders and drivers did during a simulation and
// derives the summary statistics from that record.
package monitor

import (
	"fmt"
	"math"

	"github.com/example/ride-sim/internal/geo"
)

// Category says which kind of actor an activity belongs to.
type Category string

const (
	Rider  Category = "rider"
	Driver Category = "driver"
)

// Description says what happened.
type Description string

const (
	Request Description = "request"
	Cancel  Description = "cancel"
	Pickup  Description = "pickup"
	Dropoff Description = "dropoff"
)

// Activity is one entry in an actor's log.
type Activity struct {
	Timestamp   int          `json:"timestamp"`
	Description Description  `json:"description"`
	ActorID     string       `json:"actor_id"`
	Location    geo.Location `json:"location"`
}

type actorLog struct {
	order []string
	byID  map[string][]Activity
}

// Monitor is an append-only activity log keyed by category and actor id.
type Monitor struct {
	logs map[Category]*actorLog
}

func New() *Monitor {
	return &Monitor{logs: map[Category]*actorLog{
		Rider:  {byID: make(map[string][]Activity)},
		Driver: {byID: make(map[string][]Activity)},
	}}
}

// Notify appends an activity to the actor's log, creating the log on first use.
func (m *Monitor) Notify(timestamp int, cat Category, desc Description, actorID string, loc geo.Location) {
	l := m.log(cat)
	if _, ok := l.byID[actorID]; !ok {
		l.order = append(l.order, actorID)
	}
	l.byID[actorID] = append(l.byID[actorID], Activity{
		Timestamp:   timestamp,
		Description: desc,
		ActorID:     actorID,
		Location:    loc,
	})
}

// Activities returns a copy of one actor's log in notification order.
func (m *Monitor) Activities(cat Category, actorID string) []Activity {
	src := m.log(cat).byID[actorID]
	out := make([]Activity, len(src))
	copy(out, src)
	return out
}

// Actors lists the actors of a category in order of first notification.
func (m *Monitor) Actors(cat Category) []string {
	l := m.log(cat)
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (m *Monitor) String() string {
	return fmt.Sprintf("Monitor (%d drivers, %d riders)", len(m.logs[Driver].order), len(m.logs[Rider].order))
}

// Report computes the summary statistics. A statistic with nothing to
// average over is NaN.
func (m *Monitor) Report() Report {
	return Report{
		RiderWaitTime:       m.averageWaitTime(),
		DriverTotalDistance: m.averageTotalDistance(),
		DriverRideDistance:  m.averageRideDistance(),
	}
}

// averageWaitTime only counts riders whose wait ended, by pickup or by
// cancellation.
func (m *Monitor) averageWaitTime() float64 {
	sum, count := 0, 0
	for _, acts := range m.logs[Rider].byID {
		if len(acts) < 2 {
			continue
		}
		sum += acts[1].Timestamp - acts[0].Timestamp
		count++
	}
	return average(sum, count)
}

// averageTotalDistance adds the drive to every pickup and, when the pickup
// turned into a ride, the ride itself.
func (m *Monitor) averageTotalDistance() float64 {
	sum := 0
	for _, acts := range m.logs[Driver].byID {
		for i := 0; i+2 < len(acts); i++ {
			if acts[i].Description != Request {
				continue
			}
			sum += geo.Distance(acts[i].Location, acts[i+1].Location)
			if acts[i+2].Description == Dropoff {
				sum += geo.Distance(acts[i+1].Location, acts[i+2].Location)
			}
		}
	}
	return average(sum, len(m.logs[Driver].byID))
}

func (m *Monitor) averageRideDistance() float64 {
	sum := 0
	for _, acts := range m.logs[Driver].byID {
		for i := 0; i+1 < len(acts); i++ {
			if acts[i].Description == Pickup && acts[i+1].Description == Dropoff {
				sum += geo.Distance(acts[i].Location, acts[i+1].Location)
			}
		}
	}
	return average(sum, len(m.logs[Driver].byID))
}

func (m *Monitor) log(cat Category) *actorLog {
	l, ok := m.logs[cat]
	if !ok {
		panic(fmt.Sprintf("monitor: unknown category %q", cat))
	}
	return l
}

func average(sum, count int) float64 {
	if count == 0 {
		return math.NaN()
	}
	return float64(sum) / float64(count)
}
