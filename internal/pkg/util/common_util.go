package util

import "strings"

// Ptr 返回值的指针
func Ptr[T any](v T) *T {
	return &v
}

// DedupeStrings 去掉空白项与重复项，保留第一次出现的顺序
func DedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
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
