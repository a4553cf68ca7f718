package btree

import "github.com/revred/sharc/record"

// RowIDComparator builds a Comparator for table cursors that seeks by a
// plain rowid target.
func RowIDComparator(target int64) Comparator {
	return func(rowID int64, _ []record.ColumnValue) int {
		switch {
		case rowID < target:
			return -1
		case rowID > target:
			return 1
		default:
			return 0
		}
	}
}

// IndexKeyComparator builds a Comparator for index cursors that compares
// only the leading len(target) columns of the cell's decoded key against
// target, in declared column order. A cell whose leading columns equal
// target but which has additional key columns (including the trailing
// rowid) still compares equal on the given prefix.
func IndexKeyComparator(target []record.ColumnValue) Comparator {
	return func(_ int64, values []record.ColumnValue) int {
		for i, want := range target {
			if i >= len(values) {
				return -1
			}
			if c := compareValue(values[i], want); c != 0 {
				return c
			}
		}
		return 0
	}
}

func compareValue(a, b record.ColumnValue) int {
	an, bn := a.IsNull(), b.IsNull()
	if an && bn {
		return 0
	}
	if an {
		return -1
	}
	if bn {
		return 1
	}
	switch {
	case a.Kind == record.KindText || b.Kind == record.KindText:
		return compareBytes(asBytes(a), asBytes(b))
	case a.Kind == record.KindBlob || b.Kind == record.KindBlob:
		return compareBytes(asBytes(a), asBytes(b))
	default:
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
}

func asBytes(v record.ColumnValue) []byte { return v.Span }

func asFloat(v record.ColumnValue) float64 {
	if v.Kind == record.KindFloat64 {
		return v.Float
	}
	return float64(v.Int)
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
