package rooms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Room struct {
	Name string `yaml:"name"`
	ID   int    `yaml:"id"`
}

// Catalog maps bookable room names to the ids the reservation service uses.
type Catalog struct {
	rooms []Room
}

// Default is the room list of the RHUL library booking form.
func Default() *Catalog {
	return New([]Room{
		{Name: "Bedford 2-01", ID: 29},
		{Name: "Bedford 2-01a", ID: 30},
		{Name: "Bedford 1-05", ID: 28},
		{Name: "Bedford 1-01", ID: 27},
		{Name: "Bedford Level 3", ID: 31},
		{Name: "Founder's Room 104", ID: 32},
	})
}

// DefaultRoom and DefaultDuration are what the booking form preselects.
const (
	DefaultRoom     = "Bedford 1-05"
	DefaultDuration = "2 hours"
)

func New(rs []Room) *Catalog {
	cp := make([]Room, len(rs))
	copy(cp, rs)
	return &Catalog{rooms: cp}
}

func (c *Catalog) All() []Room {
	out := make([]Room, len(c.rooms))
	copy(out, c.rooms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup resolves a room by case-insensitive name or by numeric id. A
// numeric id not in the catalog is accepted as-is so new rooms can be booked
// without a config change.
func (c *Catalog) Lookup(s string) (Room, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Room{}, fmt.Errorf("room required")
	}
	for _, r := range c.rooms {
		if strings.EqualFold(r.Name, s) {
			return r, nil
		}
	}
	if id, err := strconv.Atoi(s); err == nil && id > 0 {
		for _, r := range c.rooms {
			if r.ID == id {
				return r, nil
			}
		}
		return Room{Name: fmt.Sprintf("room %d", id), ID: id}, nil
	}
	return Room{}, fmt.Errorf("unknown room %q", s)
}

var durations = map[string]int{
	"1 hour":  60,
	"2 hours": 120,
}

// Durations lists the form's duration choices.
func Durations() []string { return []string{"1 hour", "2 hours"} }

// ParseDuration accepts "1 hour", "2 hours", "60", "120" or a Go duration
// such as "90m", and returns minutes.
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if m, ok := durations[s]; ok {
		return m, nil
	}
	if m, err := strconv.Atoi(s); err == nil {
		if m < 1 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return m, nil
	}
	switch s {
	case "1h":
		return 60, nil
	case "2h":
		return 120, nil
	}
	if strings.HasSuffix(s, "m") {
		if m, err := strconv.Atoi(strings.TrimSuffix(s, "m")); err == nil && m > 0 {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}
