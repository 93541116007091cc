package resolve

import (
	"fmt"
	"sort"

	"zzc/internal/name"
)

// assignAliases assigns each referenced absolute Name a stable local alias,
// "last_segment_N" to break collisions. Names are processed in Name.Less
// order so the alias choice is deterministic regardless of the order in
// which the module's expressions were walked.
func assignAliases(referenced map[string]name.Name) map[string]string {
	sorted := make([]name.Name, 0, len(referenced))
	for _, n := range referenced {
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	used := make(map[string]bool, len(sorted))
	aliases := make(map[string]string, len(sorted))
	for _, n := range sorted {
		segs := n.Segments()
		base := ""
		if len(segs) > 0 {
			base = segs[len(segs)-1]
		}
		alias := base
		for i := 2; used[alias]; i++ {
			alias = fmt.Sprintf("%s_%d", base, i)
		}
		used[alias] = true
		aliases[n.String()] = alias
	}
	return aliases
}
