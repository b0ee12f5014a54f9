// Package reconcile partitions an incoming collection against a stored one by
// a domain key, so child collections can be saved without an ORM.
package reconcile

// Pair is a stored item and the incoming item that replaces it.
type Pair[T any] struct {
	Old T
	New T
}

// Result is the partition of incoming items against stored ones.
type Result[T any] struct {
	Updates []Pair[T] // key in both
	Inserts []T       // key only in incoming
	Deletes []T       // key only in stored
}

// Partition splits old and incoming by keyOf. Incoming items whose key is the
// zero value are always inserts. Order follows incoming for updates and
// inserts, and old for deletes.
func Partition[T any, K comparable](old, incoming []T, keyOf func(T) K) Result[T] {
	var zero K
	stored := make(map[K]T, len(old))
	for _, o := range old {
		stored[keyOf(o)] = o
	}

	var res Result[T]
	seen := make(map[K]bool, len(incoming))
	for _, n := range incoming {
		k := keyOf(n)
		if k == zero {
			res.Inserts = append(res.Inserts, n)
			continue
		}
		if o, ok := stored[k]; ok && !seen[k] {
			res.Updates = append(res.Updates, Pair[T]{Old: o, New: n})
			seen[k] = true
			continue
		}
		if !seen[k] {
			res.Inserts = append(res.Inserts, n)
			seen[k] = true
		}
	}
	for _, o := range old {
		if !seen[keyOf(o)] {
			res.Deletes = append(res.Deletes, o)
		}
	}
	return res
}
