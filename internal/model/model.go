// Package model defines the domain types used across the application.
package model

import "time"

// Feed describes a monitored feed as listed in the feed file.
type Feed struct {
	Key  string // key in the feed file
	Name string // display name used in notifications
	URL  string
}

// Entry is a single item returned by a feed, newest first.
type Entry struct {
	Title string
	Link  string
}

// SeenItem is a feed entry that has already been notified.
type SeenItem struct {
	ID        int64
	Title     string
	Link      string
	Timestamp time.Time
}
