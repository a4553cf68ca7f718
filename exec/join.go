package exec

import (
	"github.com/RoaringBitmap/roaring"
)

const (
	tierIMax  = 256
	tierIIMax = 8192
)

// JoinTier names which of the three hash-join strategies ran, for logging
// only — all three tiers are required to produce the same multiset of
// output rows (spec §8 "Tier equivalence").
type JoinTier uint8

const (
	TierI JoinTier = iota
	TierII
	TierIII
)

// SelectTier picks the tier for a build-side row count, per spec §4.8.2.
func SelectTier(buildRowCount int) JoinTier {
	switch {
	case buildRowCount <= tierIMax:
		return TierI
	case buildRowCount <= tierIIMax:
		return TierII
	default:
		return TierIII
	}
}

// FullOuterJoin executes a FULL OUTER hash-join of build against probe,
// keyed by buildKeyCols/probeKeyCols column ordinals into each side's rows.
// buildIsLeft controls only output column order: false emits
// [probe || build], true emits [build || probe]. The row set emitted is
// identical regardless of buildIsLeft or which tier ran.
func FullOuterJoin(build, probe []Row, buildKeyCols, probeKeyCols []int, buildWidth, probeWidth int, buildIsLeft bool) ([]Row, JoinTier) {
	tier := SelectTier(len(build))

	buildKeys := make([]Row, len(build))
	for i, r := range build {
		buildKeys[i] = projectKey(r, buildKeyCols)
	}

	switch tier {
	case TierI:
		return joinLinear(build, probe, buildKeys, probeKeyCols, buildWidth, probeWidth, buildIsLeft), TierI
	default:
		return joinHashed(build, probe, buildKeys, probeKeyCols, buildWidth, probeWidth, buildIsLeft), tier
	}
}

func projectKey(row Row, cols []int) Row {
	key := make(Row, len(cols))
	for i, c := range cols {
		key[i] = row[c]
	}
	return key
}

// joinLinear is Tier I: a plain matched-flag slice and a linear scan per
// probe row. Correct for any size; used below the Tier I/II threshold
// where setup cost of a hash table does not pay for itself.
func joinLinear(build, probe []Row, buildKeys []Row, probeKeyCols []int, buildWidth, probeWidth int, buildIsLeft bool) []Row {
	matched := make([]bool, len(build))
	var out []Row
	for _, p := range probe {
		pKey := projectKey(p, probeKeyCols)
		found := false
		if !joinKeyHasNull(pKey) {
			for bi, bKey := range buildKeys {
				if keyEqualJoin(bKey, pKey) {
					matched[bi] = true
					found = true
					out = append(out, merge(build[bi], p, buildIsLeft))
				}
			}
		}
		if !found {
			out = append(out, merge(nullRow(buildWidth), p, buildIsLeft))
		}
	}
	for bi, m := range matched {
		if !m {
			out = append(out, merge(build[bi], nullRow(probeWidth), buildIsLeft))
		}
	}
	return out
}

// joinHashed serves both Tier II and Tier III with the same code: a Go map
// from the siphash of each build key to the list of build-row indices,
// probed once per probe row. A roaring bitmap holds the build rows not yet
// matched; each match clears its bit, and whatever remains set after the
// probe scan is emitted as the unmatched build set. No open-addressing
// table or backward-shift deletion is used, and the two tiers do not
// differ in data structure.
func joinHashed(build, probe []Row, buildKeys []Row, probeKeyCols []int, buildWidth, probeWidth int, buildIsLeft bool) []Row {
	table := make(map[uint64][]int, len(build))
	for i, k := range buildKeys {
		if joinKeyHasNull(k) {
			continue
		}
		h := hashKey(k)
		table[h] = append(table[h], i)
	}

	unmatched := roaring.New()
	for i := range build {
		unmatched.Add(uint32(i))
	}

	var out []Row
	for _, p := range probe {
		pKey := projectKey(p, probeKeyCols)
		found := false
		if !joinKeyHasNull(pKey) {
			h := hashKey(pKey)
			for _, bi := range table[h] {
				if keyEqualJoin(buildKeys[bi], pKey) {
					found = true
					unmatched.Remove(uint32(bi))
					out = append(out, merge(build[bi], p, buildIsLeft))
				}
			}
		}
		if !found {
			out = append(out, merge(nullRow(buildWidth), p, buildIsLeft))
		}
	}

	it := unmatched.Iterator()
	for it.HasNext() {
		bi := it.Next()
		out = append(out, merge(build[bi], nullRow(probeWidth), buildIsLeft))
	}
	return out
}

func merge(build, probe Row, buildIsLeft bool) Row {
	if buildIsLeft {
		return concatRows(build, probe)
	}
	return concatRows(probe, build)
}
