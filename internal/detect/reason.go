package detect

import (
	"strings"
)

// Reason is a single trigger that can flag a cell for human attention.
// Reasons are bits so a cell can carry several at once without losing any.
type Reason uint8

// Trigger reasons, declared in canonical serialization order.
const (
	ReasonConflict Reason = 1 << iota
	ReasonLowConfidence
	ReasonCriticalColumn
	ReasonAlwaysReviewType
	ReasonEmptyOrNA
	ReasonPending
)

// canonicalOrder fixes the order reasons appear in joined strings, so a
// rebuilt queue always serializes identical reason sets identically.
var canonicalOrder = []Reason{
	ReasonConflict,
	ReasonLowConfidence,
	ReasonCriticalColumn,
	ReasonAlwaysReviewType,
	ReasonEmptyOrNA,
	ReasonPending,
}

var reasonNames = map[Reason]string{
	ReasonConflict:         "conflict",
	ReasonLowConfidence:    "low_confidence",
	ReasonCriticalColumn:   "critical_column",
	ReasonAlwaysReviewType: "always_review_type",
	ReasonEmptyOrNA:        "empty_or_na",
	ReasonPending:          "pending",
}

// reasonPriorities maps each queueable reason to its urgency
// (lower = more urgent). ReasonPending never queues so it has no entry.
var reasonPriorities = map[Reason]int{
	ReasonConflict:         1,
	ReasonLowConfidence:    2,
	ReasonCriticalColumn:   2,
	ReasonAlwaysReviewType: 3,
	ReasonEmptyOrNA:        3,
}

// String returns the reason's wire name.
func (r Reason) String() string {
	return reasonNames[r]
}

// ReasonSet is a bitset of trigger reasons.
type ReasonSet uint8

// Add returns the set with r included.
func (s ReasonSet) Add(r Reason) ReasonSet {
	return s | ReasonSet(r)
}

// Has reports whether r is in the set.
func (s ReasonSet) Has(r Reason) bool {
	return s&ReasonSet(r) != 0
}

// Empty reports whether no reasons are set.
func (s ReasonSet) Empty() bool {
	return s == 0
}

// Slice returns the set's reasons in canonical order.
func (s ReasonSet) Slice() []Reason {
	out := make([]Reason, 0, len(canonicalOrder))
	for _, r := range canonicalOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// String joins the set's reasons in canonical order with commas.
// This is the serialization used on queue items and over the API.
func (s ReasonSet) String() string {
	names := make([]string, 0, len(canonicalOrder))
	for _, r := range s.Slice() {
		names = append(names, r.String())
	}
	return strings.Join(names, ",")
}

// Priority returns the most urgent priority among the set's queueable
// reasons, or 0 if the set holds no queueable reason.
func (s ReasonSet) Priority() int {
	best := 0
	for _, r := range s.Slice() {
		p, ok := reasonPriorities[r]
		if !ok {
			continue
		}
		if best == 0 || p < best {
			best = p
		}
	}
	return best
}

// ParseReasonSet parses a comma-joined reason string back into a set.
// Unknown names are ignored rather than erroring; the string form is a
// display serialization, not authoritative state.
func ParseReasonSet(joined string) ReasonSet {
	var s ReasonSet
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		for r, name := range reasonNames {
			if name == part {
				s = s.Add(r)
			}
		}
	}
	return s
}
