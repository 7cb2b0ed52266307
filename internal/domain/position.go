package domain

// Position arithmetic for list and card ordering. Positions are dense
// integers 0..n-1 within their scope (lists within a board, cards
// within a list). The store applies these helpers inside a single
// transaction so a partially renumbered scope can never be observed.

// ClampIndex bounds an insertion index to [0, length].
func ClampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}

// RemoveID returns ids without the given id, preserving order.
// The second return is false when id was not present.
func RemoveID(ids []string, target string) ([]string, bool) {
	for i, v := range ids {
		if v == target {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out, true
		}
	}
	return ids, false
}

// InsertIDAt returns ids with id inserted at the clamped index.
func InsertIDAt(ids []string, target string, index int) []string {
	index = ClampIndex(index, len(ids))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, target)
	out = append(out, ids[index:]...)
	return out
}

// MoveWithin reorders ids by moving target to the given index within
// the same slice. Returns the reordered slice and false if target was
// not present.
func MoveWithin(ids []string, target string, index int) ([]string, bool) {
	removed, ok := RemoveID(ids, target)
	if !ok {
		return ids, false
	}
	return InsertIDAt(removed, target, index), true
}

// IsDense reports whether positions form exactly 0..n-1 with no gaps
// or duplicates.
func IsDense(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}
