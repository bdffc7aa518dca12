package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a cell on the simulation grid. It is a comparable value type,
// so == gives structural equality.
type Location struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return strconv.Itoa(l.Row) + "," + strconv.Itoa(l.Column)
}

// Distance is the Manhattan distance between a and b.
func Distance(a, b Location) int {
	return abs(b.Row-a.Row) + abs(b.Column-a.Column)
}

// ParseLocation reads the "row,column" form produced by Location.String.
func ParseLocation(s string) (Location, error) {
	row, col, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return Location{}, fmt.Errorf("location %q: want row,column", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(row))
	if err != nil {
		return Location{}, fmt.Errorf("location %q: row: %w", s, err)
	}
	c, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil {
		return Location{}, fmt.Errorf("location %q: column: %w", s, err)
	}
	return Location{Row: r, Column: c}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
