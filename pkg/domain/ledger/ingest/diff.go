// Package ingest keeps the local store in sync with freshly fetched ESI rows.
package ingest

// Diff partitions fetched into rows whose key is not in existing (toInsert)
// and rows whose key exists and changed reports a difference (toUpdate).
// A nil changed never updates. Repeated keys within fetched collapse into
// the last occurrence, kept at the position of the first.
func Diff[K comparable, V, T any](existing map[K]V, fetched []T, key func(T) K, changed func(existing V, fetched T) bool) (toInsert, toUpdate []T) {
	var (
		order  []K
		latest = make(map[K]T, len(fetched))
	)
	for _, row := range fetched {
		k := key(row)
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = row
	}

	for _, k := range order {
		row := latest[k]
		old, ok := existing[k]
		if !ok {
			toInsert = append(toInsert, row)
			continue
		}
		if changed != nil && changed(old, row) {
			toUpdate = append(toUpdate, row)
		}
	}
	return toInsert, toUpdate
}
