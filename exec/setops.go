package exec

// SetOperate applies op to two row sequences of identical arity, per spec
// §4.8.4. Row equality treats two NULL column values as equal.
func SetOperate(op SetOp, left, right []Row) []Row {
	switch op {
	case SetUnionAll:
		return unionAll(left, right)
	case SetUnion:
		return union(left, right)
	case SetIntersect:
		return intersect(left, right)
	case SetExcept:
		return except(left, right)
	default:
		return nil
	}
}

func unionAll(left, right []Row) []Row {
	out := make([]Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// dedupFirstOccurrence returns rows with duplicates removed, preserving the
// order of first occurrence.
func dedupFirstOccurrence(rows []Row) []Row {
	seen := make(map[uint64][]Row)
	var out []Row
	for _, r := range rows {
		h := rowHashForSetOp(r)
		dup := false
		for _, s := range seen[h] {
			if rowEqualSetOp(s, r) {
				dup = true
				break
			}
		}
		if !dup {
			seen[h] = append(seen[h], r)
			out = append(out, r)
		}
	}
	return out
}

func union(left, right []Row) []Row {
	return dedupFirstOccurrence(append(append([]Row{}, left...), right...))
}

func intersect(left, right []Row) []Row {
	rightSet := make(map[uint64][]Row, len(right))
	for _, r := range right {
		h := rowHashForSetOp(r)
		rightSet[h] = append(rightSet[h], r)
	}
	var matched []Row
	for _, l := range left {
		h := rowHashForSetOp(l)
		for _, r := range rightSet[h] {
			if rowEqualSetOp(l, r) {
				matched = append(matched, l)
				break
			}
		}
	}
	return dedupFirstOccurrence(matched)
}

func except(left, right []Row) []Row {
	rightSet := make(map[uint64][]Row, len(right))
	for _, r := range right {
		h := rowHashForSetOp(r)
		rightSet[h] = append(rightSet[h], r)
	}
	var remaining []Row
	for _, l := range left {
		h := rowHashForSetOp(l)
		found := false
		for _, r := range rightSet[h] {
			if rowEqualSetOp(l, r) {
				found = true
				break
			}
		}
		if !found {
			remaining = append(remaining, l)
		}
	}
	return dedupFirstOccurrence(remaining)
}
