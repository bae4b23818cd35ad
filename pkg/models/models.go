package models

import (
	"sort"
	"time"
)

// DateLayout is the ISO form used for menu keys
const DateLayout = "2006-01-02"

// OriginBlock is the ingredient-origin statement printed under the weekly table
type OriginBlock struct {
	Main   string `json:"origin_main"`
	Notice string `json:"origin_notice"`
}

// MenuEntry is one day's schedule; the date is the key it is stored under
type MenuEntry struct {
	Weekday string   `json:"weekday"`
	Lunch   []string `json:"lunch"`
	Dinner  []string `json:"dinner"`
}

// Snapshot is one complete parse of a weekly menu document.
// It is the unit of change detection and of persistence.
type Snapshot struct {
	OriginBlock
	Menus map[string]MenuEntry `json:"menus"`
}

// Day pairs a MenuEntry with its calendar date
type Day struct {
	Date time.Time
	MenuEntry
}

// Key returns the ISO date key of the day
func (d Day) Key() string {
	return d.Date.Format(DateLayout)
}

// Days returns the snapshot entries ordered by date.
// Keys that are not valid ISO dates are skipped.
func (s Snapshot) Days() []Day {
	days := make([]Day, 0, len(s.Menus))
	for key, entry := range s.Menus {
		date, err := time.Parse(DateLayout, key)
		if err != nil {
			continue
		}
		days = append(days, Day{Date: date, MenuEntry: entry})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// FirstDate returns the key of the earliest day, or "" for an empty snapshot
func (s Snapshot) FirstDate() string {
	days := s.Days()
	if len(days) == 0 {
		return ""
	}
	return days[0].Key()
}
