package service

import (
	"slices"

	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/id"
)

var newId = id.GetUUID

func actorId(u *rbac.User) string {
	if u == nil {
		return ""
	}
	return u.Id
}

// dedupe drops empty and repeated strings, keeping first occurrences.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// without returns the elements of in not present in drop.
func without(in, drop []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(drop, s) {
			out = append(out, s)
		}
	}
	return out
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
