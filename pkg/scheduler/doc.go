// Package scheduler drives a single batch run: it decides from the stored
// cadence whether to look for a new menu, fetches and parses the document,
// commits the snapshot when it changed and advances the cadence.
package scheduler
