package review

import "strconv"

// Cursor is a zero-based position in the current filtered question
// list. It round-trips through the interface layer as the "q" query
// value so a study session survives reloads; the engine itself only
// parses, clamps and moves it.
type Cursor int

// ParseCursor reads the externalized "q" value. Anything that is not a
// non-negative integer means "start at the beginning".
func ParseCursor(s string) Cursor {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return Cursor(n)
}

// Clamp resets the cursor to 0 when it no longer points inside a list
// of the given length. In-range positions are kept, so shrinking the
// list with a filter change does not jump back to the start unless it
// must.
func (c Cursor) Clamp(length int) Cursor {
	if int(c) >= length || c < 0 {
		return 0
	}
	return c
}

// Next advances by one, saturating at the last index.
func (c Cursor) Next(length int) Cursor {
	if int(c) < length-1 {
		return c + 1
	}
	return c
}

// Prev steps back by one, saturating at 0.
func (c Cursor) Prev() Cursor {
	if c > 0 {
		return c - 1
	}
	return c
}

// JumpTo moves to the 1-based position n, clamped to the valid range.
func (c Cursor) JumpTo(n, length int) Cursor {
	if length <= 0 {
		return 0
	}
	i := n - 1
	if i < 0 {
		i = 0
	}
	if i >= length {
		i = length - 1
	}
	return Cursor(i)
}

func (c Cursor) String() string {
	return strconv.Itoa(int(c))
}
