// Package viewmodel turns stored records into the filtered, sorted and grouped
// lists that the dashboard screens display. Every function works on a copy and
// leaves its input untouched.
package viewmodel

import (
	"sort"
	"strings"
)

// Filter keeps the items that satisfy every predicate.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// SortStable returns a sorted copy of items. Equal items keep their order.
func SortStable[T any](items []T, less func(a, b T) bool) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

type Group[K comparable, T any] struct {
	Key   K   `json:"key"`
	Items []T `json:"items"`
}

// GroupBy buckets items by key in first-seen key order. Items keep their
// relative order inside a group.
func GroupBy[K comparable, T any](items []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int)
	var groups []Group[K, T]
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// Order controls sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// lessOptional orders two values that may be missing. Missing values sort
// after present ones in both directions.
func lessOptional(aOK, bOK bool, cmp int, order Order) bool {
	switch {
	case aOK && !bOK:
		return true
	case !aOK:
		return false
	case order == Desc:
		return cmp > 0
	default:
		return cmp < 0
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
