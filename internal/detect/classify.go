// Package detect implements the conflict detector: a pure classifier that
// decides, for one cell's candidate set and column flags, whether the cell
// needs human attention, why, how urgently, and what value it would
// auto-resolve to when no attention is needed. Classification never errors
// on disagreement; conflict is an outcome, not a failure.
package detect

import (
	"time"

	"github.com/casefold/tabular/internal/grid"
)

// Candidate is one extraction attempt's proposed value, reduced to the
// fields classification needs. Slices passed to Classify must be ordered
// by CreatedAt ascending, the candidate store's natural order.
type Candidate struct {
	Value           string
	NormalizedValue string
	Confidence      float64
	CreatedAt       time.Time
}

// CellInput carries one cell's state into classification.
type CellInput struct {
	ColumnType   grid.ColumnType
	IsCritical   bool
	AlwaysReview bool
	Status       grid.CellStatus
	Candidates   []Candidate
}

// AutoValue is the value a cell resolves to without human attention.
type AutoValue struct {
	Value           string
	NormalizedValue string
}

// Outcome is the classification result for one cell.
type Outcome struct {
	Reasons   ReasonSet
	Priority  int
	AutoValue *AutoValue
}

// Queued reports whether the outcome places the cell on the review queue.
// Pending cells are the extraction scheduler's concern, not the queue's.
func (o Outcome) Queued() bool {
	return !o.Reasons.Empty() && o.Reasons != ReasonSet(ReasonPending)
}

// Config holds the classification policy knobs.
type Config struct {
	// ConfidenceThreshold is the floor below which the best candidate's
	// confidence flags the cell for review.
	ConfidenceThreshold float64
	// AlwaysReviewCritical forces every critical-column cell through human
	// review even when candidates agree with high confidence.
	AlwaysReviewCritical bool
}

// Classifier applies a fixed policy to cells. Classify is deterministic:
// identical inputs produce identical outcomes.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a Classifier with the given policy.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify evaluates one cell.
func (c *Classifier) Classify(in CellInput) Outcome {
	if in.Status == grid.StatusPending || in.Status == grid.StatusProcessing {
		return Outcome{Reasons: ReasonSet(0).Add(ReasonPending)}
	}

	usable := usableCandidates(in.Candidates)

	var reasons ReasonSet
	conflict := hasConflict(in.ColumnType, usable)
	if conflict {
		reasons = reasons.Add(ReasonConflict)
	}

	best := bestCandidate(usable)

	lowConfidence := best != nil && best.Confidence < c.cfg.ConfidenceThreshold
	if lowConfidence {
		reasons = reasons.Add(ReasonLowConfidence)
	}

	if in.IsCritical && (c.cfg.AlwaysReviewCritical || conflict || lowConfidence) {
		reasons = reasons.Add(ReasonCriticalColumn)
	}

	if in.AlwaysReview {
		reasons = reasons.Add(ReasonAlwaysReviewType)
	}

	if len(in.Candidates) == 0 {
		reasons = reasons.Add(ReasonEmptyOrNA)
	}

	outcome := Outcome{
		Reasons:  reasons,
		Priority: reasons.Priority(),
	}

	if reasons.Empty() {
		outcome.AutoValue = autoValue(best)
	}

	return outcome
}

// usableCandidates filters out NA-equivalent values; they express absence,
// not a competing extraction.
func usableCandidates(candidates []Candidate) []Candidate {
	usable := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if IsNAEquivalent(cand.NormalizedValue) {
			continue
		}
		usable = append(usable, cand)
	}
	return usable
}

// hasConflict reports whether the usable candidates disagree after
// normalization. Candidates are clustered against representatives so a
// numeric tolerance match never splits a cluster.
func hasConflict(t grid.ColumnType, usable []Candidate) bool {
	var representatives []string

	for _, cand := range usable {
		matched := false
		for _, rep := range representatives {
			if Equivalent(t, cand.NormalizedValue, rep) {
				matched = true
				break
			}
		}
		if !matched {
			representatives = append(representatives, cand.NormalizedValue)
		}
	}

	return len(representatives) >= 2
}

// bestCandidate picks the highest-confidence usable candidate, ties broken
// by earliest creation. Returns nil when no usable candidate exists.
func bestCandidate(usable []Candidate) *Candidate {
	var best *Candidate
	for i := range usable {
		cand := &usable[i]
		if best == nil {
			best = cand
			continue
		}
		if cand.Confidence > best.Confidence {
			best = cand
			continue
		}
		if cand.Confidence == best.Confidence && cand.CreatedAt.Before(best.CreatedAt) {
			best = cand
		}
	}
	return best
}

// autoValue resolves to the best candidate, or to the N/A sentinel when
// every candidate expressed absence; unanimous absence is agreement.
func autoValue(best *Candidate) *AutoValue {
	if best == nil {
		return &AutoValue{
			Value:           grid.NotApplicable,
			NormalizedValue: grid.NotApplicable,
		}
	}
	return &AutoValue{
		Value:           best.Value,
		NormalizedValue: best.NormalizedValue,
	}
}
