package ingest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/ride-sim/internal/geo"
	"github.com/example/ride-sim/internal/models"
	"github.com/example/ride-sim/internal/sim"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Upper bounds on accepted values. Timestamps, patience and coordinates stay
// small enough that follow-up times and grid distances fit in an int.
const (
	MaxTime       = 1 << 30
	MaxCoordinate = 1 << 30
)

// ParseError points at the offending line of an event file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Batch is a parsed event file.
type Batch struct {
	Events []sim.Event
	// Fingerprint identifies the significant content of the file; two files
	// that differ only in comments or spacing share it.
	Fingerprint string
}

// Load parses event records, one per line:
//
//	<timestamp> RiderRequest <id> <row,col> <row,col> <patience>
//	<timestamp> DriverRequest <id> <row,col> <speed>
//
// Blank lines and lines starting with # are skipped.
func Load(r io.Reader) (Batch, error) {
	var (
		b    Batch
		hash = sha256.New()
		sc   = bufio.NewScanner(r)
		n    int
	)
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		e, err := parseRecord(tokens)
		if err != nil {
			return Batch{}, &ParseError{Line: n, Err: err}
		}
		b.Events = append(b.Events, e)
		hash.Write([]byte(strings.Join(tokens, " ")))
		hash.Write([]byte{'\n'})
	}
	if err := sc.Err(); err != nil {
		return Batch{}, fmt.Errorf("read events: %w", err)
	}
	b.Fingerprint = hex.EncodeToString(hash.Sum(nil))
	return b, nil
}

func parseRecord(tokens []string) (sim.Event, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("want at least a timestamp and an event type, got %d fields", len(tokens))
	}
	ts, err := nonNegative(tokens[0], "timestamp")
	if err != nil {
		return nil, err
	}
	switch tokens[1] {
	case "RiderRequest":
		if len(tokens) != 6 {
			return nil, fmt.Errorf("RiderRequest: want 6 fields, got %d", len(tokens))
		}
		origin, err := parseLocation(tokens[3])
		if err != nil {
			return nil, fmt.Errorf("RiderRequest origin: %w", err)
		}
		dest, err := parseLocation(tokens[4])
		if err != nil {
			return nil, fmt.Errorf("RiderRequest destination: %w", err)
		}
		patience, err := nonNegative(tokens[5], "patience")
		if err != nil {
			return nil, err
		}
		return sim.RiderRequest{Time: ts, Rider: models.NewRider(tokens[2], origin, dest, patience)}, nil
	case "DriverRequest":
		if len(tokens) != 5 {
			return nil, fmt.Errorf("DriverRequest: want 5 fields, got %d", len(tokens))
		}
		at, err := parseLocation(tokens[3])
		if err != nil {
			return nil, fmt.Errorf("DriverRequest location: %w", err)
		}
		speed, err := strconv.Atoi(tokens[4])
		if err != nil {
			return nil, fmt.Errorf("speed: %w", err)
		}
		if speed <= 0 {
			return nil, fmt.Errorf("speed must be > 0, got %d", speed)
		}
		return sim.DriverRequest{Time: ts, Driver: models.NewDriver(tokens[2], at, speed)}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEvent, tokens[1])
	}
}

func nonNegative(s, field string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if v < 0 || v > MaxTime {
		return 0, fmt.Errorf("%s must be in [0, %d], got %d", field, MaxTime, v)
	}
	return v, nil
}

func parseLocation(s string) (geo.Location, error) {
	l, err := geo.ParseLocation(s)
	if err != nil {
		return geo.Location{}, err
	}
	if outside(l.Row) || outside(l.Column) {
		return geo.Location{}, fmt.Errorf("location %s: coordinates must be within ±%d", l, MaxCoordinate)
	}
	return l, nil
}

func outside(v int) bool { return v < -MaxCoordinate || v > MaxCoordinate }
