package activity

import (
	"fmt"
	"sort"
	"strings"
)

func humanize(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

func describeItems(items map[string]int) string {
	if len(items) == 0 {
		return "nothing"
	}
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d %s", items[name], humanize(name)))
	}
	return strings.Join(parts, ", ")
}
