package availability

import "sort"

// mergeIntervals sorts the given intervals and coalesces any that overlap
// or touch, returning a normalized ordered set.
func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}

	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// Subtract removes the block intervals from the open set. Both inputs may
// be unsorted; the result is ordered and non-overlapping.
func Subtract(open, blocks []Interval) []Interval {
	open = mergeIntervals(open)
	blocks = mergeIntervals(blocks)

	var out []Interval
	for _, o := range open {
		cur := o
		for _, b := range blocks {
			if !cur.Overlaps(b) {
				continue
			}
			if b.Start > cur.Start {
				out = append(out, Interval{Start: cur.Start, End: b.Start})
			}
			if b.End >= cur.End {
				cur.Start = cur.End // fully consumed
				break
			}
			cur.Start = b.End
		}
		if cur.Start < cur.End {
			out = append(out, cur)
		}
	}

	return out
}

// Covers reports whether target lies entirely within one of the open
// intervals.
func Covers(open []Interval, target Interval) bool {
	for _, o := range open {
		if o.Contains(target) {
			return true
		}
	}
	return false
}

// validatePattern checks every interval is well formed and that no two
// intervals on the same weekday overlap.
func validatePattern(p WeeklyPattern) error {
	for _, ivs := range p {
		for i, iv := range ivs {
			if !iv.Valid() {
				return ErrInvalidInterval
			}
			for _, other := range ivs[i+1:] {
				if iv.Overlaps(other) {
					return ErrInvalidInterval
				}
			}
		}
	}
	return nil
}

// effectiveOpen applies a date's overrides to the weekly pattern intervals:
// a block_day empties the date, add_interval opens extra time, and
// block_interval closes time.
func effectiveOpen(pattern []Interval, overrides []Override) []Interval {
	var adds, blocks []Interval
	for _, ov := range overrides {
		switch ov.Kind {
		case OverrideBlockDay:
			return nil
		case OverrideAddInterval:
			if ov.Interval != nil {
				adds = append(adds, *ov.Interval)
			}
		case OverrideBlockInterval:
			if ov.Interval != nil {
				blocks = append(blocks, *ov.Interval)
			}
		}
	}

	open := make([]Interval, 0, len(pattern)+len(adds))
	open = append(open, pattern...)
	open = append(open, adds...)

	return Subtract(open, blocks)
}
