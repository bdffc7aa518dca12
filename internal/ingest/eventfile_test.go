package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/ride-sim/internal/geo"
	"github.com/example/ride-sim/internal/models"
	"github.com/example/ride-sim/internal/sim"
)

const small = `# a small day
1 RiderRequest Dan 1,1 6,6 15

10 DriverRequest Arnold 3,3 2
`

func TestLoadSmall(t *testing.T) {
	b, err := Load(strings.NewReader(small))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(b.Events))
	}
	rr, ok := b.Events[0].(sim.RiderRequest)
	if !ok {
		t.Fatalf("expected RiderRequest, got %T", b.Events[0])
	}
	want := models.NewRider("Dan", geo.Location{Row: 1, Column: 1}, geo.Location{Row: 6, Column: 6}, 15)
	if rr.Time != 1 || !rr.Rider.Equal(want) {
		t.Fatalf("unexpected rider request %+v", rr)
	}
	dr, ok := b.Events[1].(sim.DriverRequest)
	if !ok {
		t.Fatalf("expected DriverRequest, got %T", b.Events[1])
	}
	if dr.Time != 10 || !dr.Driver.Equal(models.NewDriver("Arnold", geo.Location{Row: 3, Column: 3}, 2)) || dr.Driver.Speed != 2 {
		t.Fatalf("unexpected driver request %+v", dr)
	}
}

func TestFingerprintIgnoresCommentsAndSpacing(t *testing.T) {
	a, err := Load(strings.NewReader(small))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(strings.NewReader("1   RiderRequest Dan 1,1 6,6 15\n# other comment\n10 DriverRequest  Arnold 3,3 2"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Fatal("fingerprints should match")
	}
	c, err := Load(strings.NewReader("1 RiderRequest Dan 1,1 6,6 16\n10 DriverRequest Arnold 3,3 2"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Fingerprint == a.Fingerprint {
		t.Fatal("different content must change the fingerprint")
	}
}

func TestLoadRejectsBadRecords(t *testing.T) {
	cases := map[string]string{
		"unknown kind":    "1 BusRequest b 1,1 2",
		"short rider":     "1 RiderRequest r 1,1 2,2",
		"bad location":    "1 DriverRequest d 1-1 2",
		"zero speed":      "1 DriverRequest d 1,1 0",
		"negative time":   "-1 DriverRequest d 1,1 3",
		"negative wait":   "1 RiderRequest r 1,1 2,2 -4",
		"bare timestamp":  "5",
		"non-number time": "x DriverRequest d 1,1 3",
		"huge patience":   "1 RiderRequest r 1,1 2,2 9223372036854775807",
		"huge timestamp":  "1073741825 DriverRequest d 1,1 3",
		"huge coordinate": "1 DriverRequest d 1,4611686018427387904 3",
	}
	for name, in := range cases {
		_, err := Load(strings.NewReader("# header\n" + in))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected ParseError, got %v", name, err)
		}
		if perr.Line != 2 {
			t.Fatalf("%s: expected line 2, got %d", name, perr.Line)
		}
	}
	_, err := Load(strings.NewReader("1 BusRequest b 1,1 2"))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	b, err := Load(strings.NewReader("\n# nothing\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Events) != 0 || b.Fingerprint == "" {
		t.Fatalf("unexpected batch %+v", b)
	}
}

func TestLoadAcceptsBoundaryValues(t *testing.T) {
	b, err := Load(strings.NewReader("1073741824 RiderRequest r -1073741824,0 1073741824,0 1073741824"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rr := b.Events[0].(sim.RiderRequest)
	if rr.Time != MaxTime || rr.Rider.Patience != MaxTime || rr.Rider.Origin.Row != -MaxCoordinate {
		t.Fatalf("unexpected request %+v", rr)
	}
}
