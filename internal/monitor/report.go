package monitor

import (
	"encoding/json"
	"math"
)

// Report holds the averages produced at the end of a run.
type Report struct {
	RiderWaitTime       float64
	DriverTotalDistance float64
	DriverRideDistance  float64
}

// reportJSON uses pointers so that NaN, which JSON cannot carry, becomes null.
type reportJSON struct {
	RiderWaitTime       *float64 `json:"rider_wait_time"`
	DriverTotalDistance *float64 `json:"driver_total_distance"`
	DriverRideDistance  *float64 `json:"driver_ride_distance"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		RiderWaitTime:       finite(r.RiderWaitTime),
		DriverTotalDistance: finite(r.DriverTotalDistance),
		DriverRideDistance:  finite(r.DriverRideDistance),
	})
}

func (r *Report) UnmarshalJSON(b []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.RiderWaitTime = orNaN(raw.RiderWaitTime)
	r.DriverTotalDistance = orNaN(raw.DriverTotalDistance)
	r.DriverRideDistance = orNaN(raw.DriverRideDistance)
	return nil
}

// Equal treats two NaN statistics as equal.
func (r Report) Equal(o Report) bool {
	return sameStat(r.RiderWaitTime, o.RiderWaitTime) &&
		sameStat(r.DriverTotalDistance, o.DriverTotalDistance) &&
		sameStat(r.DriverRideDistance, o.DriverRideDistance)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func sameStat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
