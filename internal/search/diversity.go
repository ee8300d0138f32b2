// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/evidence-engine/pkg/types"

// SelectDiverse picks up to num records from the score-sorted list. The
// first pass takes the best record of each distinct host; the second pass
// fills the remaining slots in sorted order. The result therefore holds
// min(num, len(sorted)) records and repeats a host only when there are
// fewer distinct hosts than num.
func SelectDiverse(sorted []types.ResultRecord, num int) []types.ResultRecord {
	if num <= 0 || len(sorted) == 0 {
		return nil
	}

	out := make([]types.ResultRecord, 0, min(num, len(sorted)))
	taken := make([]bool, len(sorted))
	hosts := make(map[string]bool)

	for i, r := range sorted {
		if len(out) == num {
			break
		}
		h := hostOf(r.URL)
		if hosts[h] {
			continue
		}
		hosts[h] = true
		taken[i] = true
		out = append(out, r)
	}

	for i, r := range sorted {
		if len(out) == num {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		out = append(out, r)
	}

	return out
}
