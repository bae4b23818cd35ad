// Package storage persists the menu snapshot and cadence records.
// It uses BadgerDB as the embedded database and stores every value as JSON under a named key.
package storage
