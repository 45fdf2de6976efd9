package models

import "fmt"

// ResolvePolicy controls what happens when every rate source has failed.
type ResolvePolicy string

const (
	// ResolveAvailabilityFirst returns the configured fallback value so a
	// downstream dashboard always has a number to render.
	ResolveAvailabilityFirst ResolvePolicy = "availability_first"
	// ResolveStrict surfaces exhaustion as an error to the caller.
	ResolveStrict ResolvePolicy = "strict"
)

// WritePolicy controls how the ledger file is updated.
type WritePolicy string

const (
	// WriteAppendDedupByDay keeps one row per calendar day, replacing the
	// last row in place when run again on the same day.
	WriteAppendDedupByDay WritePolicy = "append_dedup_by_day"
	// WriteOverwriteSingle keeps only the latest snapshot: header + one row.
	WriteOverwriteSingle WritePolicy = "overwrite_single"
)

// ParseResolvePolicy validates a configured resolve policy string.
func ParseResolvePolicy(s string) (ResolvePolicy, error) {
	switch ResolvePolicy(s) {
	case ResolveAvailabilityFirst, ResolveStrict:
		return ResolvePolicy(s), nil
	}
	return "", fmt.Errorf("unknown resolve policy: %q", s)
}

// ParseWritePolicy validates a configured write policy string.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(s) {
	case WriteAppendDedupByDay, WriteOverwriteSingle:
		return WritePolicy(s), nil
	}
	return "", fmt.Errorf("unknown write policy: %q", s)
}
