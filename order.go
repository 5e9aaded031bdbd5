package artcatalog

import (
	"fmt"
	"time"
)

// orderModulus bounds the seeded sort key. Small enough to keep the
// multiplication well inside int64 for realistic ids and millisecond seeds.
const orderModulus = 1_000_000

// NewSeed mints a browsing-session seed from the current time in
// milliseconds. The caller carries it through every page of the listing,
// typically in the query string rather than server-side session state.
func NewSeed() int64 {
	return time.Now().UnixMilli()
}

// OrderKey maps an entry id to its position in the seeded pseudo-random
// ordering: (id * seed) mod 1,000,000, sorted ascending. For a fixed seed the
// induced order is a deterministic, repeatable shuffle, stable across pages.
// It is not cryptographically random and not bijective; callers break key
// collisions by ascending id.
func OrderKey(id, seed int64) int64 {
	k := (id * seed) % orderModulus
	if k < 0 {
		k += orderModulus
	}
	return k
}

// RandomOrderExpr renders the ORDER BY expression equivalent to OrderKey with
// its id tie-break, for stores that sort in SQL.
func RandomOrderExpr(seed int64) string {
	return fmt.Sprintf("((id * %d) %% %d), id", seed, orderModulus)
}
