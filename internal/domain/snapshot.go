// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form of a snapshot date.
const DateLayout = "2006-01-02"

// ErrInvalidRepo is returned when a repository identifier is not of the form owner/name.
var ErrInvalidRepo = errors.New("invalid repository identifier")

// RepoID identifies a single GitHub repository.
type RepoID struct {
	Owner string
	Name  string
}

// ParseRepoID parses an "owner/name" identifier.
func ParseRepoID(s string) (RepoID, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") ||
		strings.ContainsAny(s, " \t\r\n") {
		return RepoID{}, fmt.Errorf("%w: %q", ErrInvalidRepo, s)
	}
	return RepoID{Owner: owner, Name: name}, nil
}

func (r RepoID) String() string {
	return r.Owner + "/" + r.Name
}

// IssueCounts holds the number of open and closed issues of a repository
// at the moment they were enumerated.
type IssueCounts struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// Snapshot is one row of the daily history. Date is a calendar date stored
// as midnight UTC so that drivers never shift it across a day boundary.
type Snapshot struct {
	Date   time.Time `json:"date" gorm:"column:date;type:date;primaryKey"`
	Open   int       `json:"open" gorm:"column:open;type:int"`
	Closed int       `json:"closed" gorm:"column:closed;type:int"`
}

// TableName tells gorm which table holds snapshots.
func (Snapshot) TableName() string {
	return "github"
}

// NewSnapshot builds the snapshot for the calendar day of t, as seen in t's own location.
func NewSnapshot(t time.Time, counts IssueCounts) Snapshot {
	return Snapshot{
		Date:   CalendarDate(t),
		Open:   counts.Open,
		Closed: counts.Closed,
	}
}

// CalendarDate truncates t to its calendar day and re-anchors it at midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns the snapshot date as YYYY-MM-DD.
func (s Snapshot) Day() string {
	return s.Date.Format(DateLayout)
}

// Counts returns the issue counts carried by the snapshot.
func (s Snapshot) Counts() IssueCounts {
	return IssueCounts{Open: s.Open, Closed: s.Closed}
}
