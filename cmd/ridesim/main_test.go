package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

const reference = "2 RiderRequest r1 0,0 3,4 4\n3 DriverRequest d1 0,4 10\n"

func TestRunPrintsReport(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), "-", false, false, strings.NewReader(reference), &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "rider wait time:       1.00\ndriver total distance: 11.00\ndriver ride distance:  7.00\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestRunTraceAndJSON(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), "-", true, true, strings.NewReader(reference), &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.HasPrefix(s, "2 -- r1: Request a driver\n3 -- d1: Request a rider\n") {
		t.Fatalf("unexpected trace %q", s)
	}
	if !strings.Contains(s, `"driver_total_distance": 11`) {
		t.Fatalf("expected JSON report, got %q", s)
	}
}

func TestRunRejectsBadFile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), "-", false, false, strings.NewReader("1 Nope"), &out, nil)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line error, got %v", err)
	}
}
