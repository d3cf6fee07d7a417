// Package domain holds the types shared by the counter service, the
// counter client and the widget.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Thumb is the persisted rating for one content item, in the wire shape
// the blog front end reads.
type Thumb struct {
	Slug      string `db:"slug"       json:"slug"`
	UpCount   int64  `db:"up_count"   json:"upCount"`
	DownCount int64  `db:"down_count" json:"downCount"`
}

// Direction is the side of a vote.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ErrInvalidDirection is returned by ParseDirection.
var ErrInvalidDirection = errors.New("direction must be up or down")

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Vote is one accepted increment request.
type Vote struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Direction  Direction `json:"direction"`
	ReceivedAt time.Time `json:"received_at"`
}

// Delta is the aggregated change to apply to one slug.
type Delta struct {
	Slug string
	Up   int64
	Down int64
}

// Add counts one vote.
func (d *Delta) Add(dir Direction) {
	if dir == Up {
		d.Up++
		return
	}
	d.Down++
}
