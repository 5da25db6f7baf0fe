package schedule

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// Interval is a half-open [Start, End) range within a day.
type Interval struct {
	Start Clock
	End   Clock
}

// Valid reports whether the interval is non-empty and within a day.
func (i Interval) Valid() bool {
	return i.Start.Valid() && i.End.Valid() && i.Start < i.End
}

// Overlaps reports whether i and other intersect.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}
