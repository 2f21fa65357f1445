package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalValid(t *testing.T) {
	assert.True(t, Interval{Start: 0, End: 1}.Valid())
	assert.True(t, Interval{Start: 540, End: 720}.Valid())
	assert.True(t, Interval{Start: 0, End: minutesPerDay}.Valid())

	assert.False(t, Interval{Start: 540, End: 540}.Valid(), "empty interval")
	assert.False(t, Interval{Start: 720, End: 540}.Valid(), "inverted interval")
	assert.False(t, Interval{Start: -10, End: 60}.Valid(), "negative start")
	assert.False(t, Interval{Start: 0, End: minutesPerDay + 1}.Valid(), "past midnight")
}

func TestIntervalOverlaps(t *testing.T) {
	a := Interval{Start: 540, End: 720}

	assert.True(t, a.Overlaps(Interval{Start: 600, End: 660}))
	assert.True(t, a.Overlaps(Interval{Start: 500, End: 550}))
	assert.True(t, a.Overlaps(Interval{Start: 700, End: 800}))

	// Half-open: touching endpoints do not overlap.
	assert.False(t, a.Overlaps(Interval{Start: 720, End: 780}))
	assert.False(t, a.Overlaps(Interval{Start: 480, End: 540}))
}

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "disjoint stay separate",
			in:   []Interval{{Start: 600, End: 660}, {Start: 480, End: 540}},
			want: []Interval{{Start: 480, End: 540}, {Start: 600, End: 660}},
		},
		{
			name: "overlapping coalesce",
			in:   []Interval{{Start: 480, End: 600}, {Start: 540, End: 660}},
			want: []Interval{{Start: 480, End: 660}},
		},
		{
			name: "touching coalesce",
			in:   []Interval{{Start: 480, End: 540}, {Start: 540, End: 600}},
			want: []Interval{{Start: 480, End: 600}},
		},
		{
			name: "contained is absorbed",
			in:   []Interval{{Start: 480, End: 720}, {Start: 540, End: 600}},
			want: []Interval{{Start: 480, End: 720}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeIntervals(tt.in))
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name   string
		open   []Interval
		blocks []Interval
		want   []Interval
	}{
		{
			name: "block splits the middle",
			open: []Interval{{Start: 540, End: 720}},
			blocks: []Interval{
				{Start: 600, End: 630},
			},
			want: []Interval{{Start: 540, End: 600}, {Start: 630, End: 720}},
		},
		{
			name:   "block trims the start",
			open:   []Interval{{Start: 540, End: 720}},
			blocks: []Interval{{Start: 480, End: 600}},
			want:   []Interval{{Start: 600, End: 720}},
		},
		{
			name:   "block trims the end",
			open:   []Interval{{Start: 540, End: 720}},
			blocks: []Interval{{Start: 660, End: 780}},
			want:   []Interval{{Start: 540, End: 660}},
		},
		{
			name:   "block consumes everything",
			open:   []Interval{{Start: 540, End: 720}},
			blocks: []Interval{{Start: 480, End: 780}},
			want:   nil,
		},
		{
			name:   "no overlap leaves open untouched",
			open:   []Interval{{Start: 540, End: 720}},
			blocks: []Interval{{Start: 780, End: 840}},
			want:   []Interval{{Start: 540, End: 720}},
		},
		{
			name: "multiple blocks across multiple opens",
			open: []Interval{{Start: 480, End: 600}, {Start: 780, End: 1020}},
			blocks: []Interval{
				{Start: 540, End: 560},
				{Start: 800, End: 900},
			},
			want: []Interval{
				{Start: 480, End: 540},
				{Start: 560, End: 600},
				{Start: 780, End: 800},
				{Start: 900, End: 1020},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtract(tt.open, tt.blocks))
		})
	}
}

func TestCovers(t *testing.T) {
	open := []Interval{{Start: 480, End: 600}, {Start: 780, End: 1020}}

	assert.True(t, Covers(open, Interval{Start: 480, End: 600}))
	assert.True(t, Covers(open, Interval{Start: 800, End: 830}))

	assert.False(t, Covers(open, Interval{Start: 590, End: 620}), "spills past an open interval")
	assert.False(t, Covers(open, Interval{Start: 600, End: 780}), "straddles the gap")
	assert.False(t, Covers(nil, Interval{Start: 480, End: 510}), "nothing open")
}

func TestValidatePattern(t *testing.T) {
	require.NoError(t, validatePattern(WeeklyPattern{
		time.Monday: {{Start: 540, End: 720}, {Start: 780, End: 1020}},
	}))

	err := validatePattern(WeeklyPattern{
		time.Monday: {{Start: 540, End: 720}, {Start: 700, End: 800}},
	})
	assert.ErrorIs(t, err, ErrInvalidInterval, "overlapping same-day intervals")

	err = validatePattern(WeeklyPattern{
		time.Monday: {{Start: 720, End: 540}},
	})
	assert.ErrorIs(t, err, ErrInvalidInterval, "inverted interval")
}

func TestEffectiveOpen(t *testing.T) {
	pattern := []Interval{{Start: 540, End: 720}}

	t.Run("no overrides", func(t *testing.T) {
		assert.Equal(t, []Interval{{Start: 540, End: 720}}, effectiveOpen(pattern, nil))
	})

	t.Run("block_day wins over everything", func(t *testing.T) {
		got := effectiveOpen(pattern, []Override{
			{Kind: OverrideAddInterval, Interval: &Interval{Start: 780, End: 840}},
			{Kind: OverrideBlockDay},
		})
		assert.Nil(t, got)
	})

	t.Run("add_interval opens extra time", func(t *testing.T) {
		got := effectiveOpen(pattern, []Override{
			{Kind: OverrideAddInterval, Interval: &Interval{Start: 780, End: 840}},
		})
		assert.Equal(t, []Interval{{Start: 540, End: 720}, {Start: 780, End: 840}}, got)
	})

	t.Run("block_interval carves out time", func(t *testing.T) {
		got := effectiveOpen(pattern, []Override{
			{Kind: OverrideBlockInterval, Interval: &Interval{Start: 600, End: 630}},
		})
		assert.Equal(t, []Interval{{Start: 540, End: 600}, {Start: 630, End: 720}}, got)
	})
}
