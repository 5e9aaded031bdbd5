package artcatalog

import (
	"context"
	"sort"
)

// MaxNearMatches caps the near-duplicate list handed back for presentation.
const MaxNearMatches = 50

// Verdict is the outcome of duplicate resolution for one candidate.
type Verdict int

const (
	// VerdictAdmit: no exact match and nothing within the threshold.
	VerdictAdmit Verdict = iota + 1
	// VerdictRejectExact: an entry with the same non-empty (platform, artist,
	// title) already exists. Terminal; admission must abort.
	VerdictRejectExact
	// VerdictFlagNearDuplicate: at least one cataloged fingerprint lies
	// strictly under the threshold. Advisory; interactive callers may admit
	// anyway, automated callers must skip.
	VerdictFlagNearDuplicate
)

func (v Verdict) String() string {
	switch v {
	case VerdictAdmit:
		return "admit"
	case VerdictRejectExact:
		return "reject-exact"
	case VerdictFlagNearDuplicate:
		return "flag-near-duplicate"
	default:
		return "invalid"
	}
}

// Match is one near-duplicate hit.
type Match struct {
	ID       int64
	Distance int
}

// Decision carries the verdict and its payload: Conflict for
// VerdictRejectExact, Matches for VerdictFlagNearDuplicate.
type Decision struct {
	Verdict  Verdict
	Conflict *EntryRef
	Matches  []Match
}

// Resolve decides admit / reject-exact / flag-near-duplicate for a candidate.
//
// The exact check is key-based and only runs for a non-empty title. The near
// check is a linear scan over the supplied fingerprint snapshot with strict
// "distance < threshold"; callers processing many candidates must load that
// snapshot once via Store.AllFingerprints and reuse it, not re-query per
// candidate. A nil candidate fingerprint skips the near check entirely.
func Resolve(ctx context.Context, key ExactKey, fp *Fingerprint, lookup ExactLookup, fps []FingerprintRecord, threshold int) (Decision, error) {
	if key.Title != "" && lookup != nil {
		existing, err := lookup.FindByExactKey(ctx, key)
		if err != nil {
			return Decision{}, &StoreError{Op: "find by exact key", Err: err}
		}
		if existing != nil {
			return Decision{Verdict: VerdictRejectExact, Conflict: existing}, nil
		}
	}

	if fp != nil {
		if matches := NearDuplicates(*fp, fps, threshold); len(matches) > 0 {
			return Decision{Verdict: VerdictFlagNearDuplicate, Matches: matches}, nil
		}
	}

	return Decision{Verdict: VerdictAdmit}, nil
}

// NearDuplicates scans a fingerprint snapshot for entries strictly closer
// than threshold, sorted ascending by distance then id, capped at
// MaxNearMatches. O(n) in catalog size; adequate into the tens of thousands
// of entries, and replaceable by an indexed structure behind the same
// contract if that ever stops being true.
func NearDuplicates(fp Fingerprint, records []FingerprintRecord, threshold int) []Match {
	var matches []Match
	for _, r := range records {
		if d := fp.Distance(r.Fingerprint); d < threshold {
			matches = append(matches, Match{ID: r.ID, Distance: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > MaxNearMatches {
		matches = matches[:MaxNearMatches]
	}
	return matches
}
