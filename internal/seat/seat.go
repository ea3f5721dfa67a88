// Package seat implements clockwise seat arithmetic for a table of up to
// MaxSeats seats numbered from 1.
package seat

import "slices"

// MaxSeats is the number of seats at a table.
const MaxSeats = 8

// Next returns the smallest occupied seat strictly greater than from, wrapping
// to the smallest occupied seat when none is greater. from need not be
// occupied itself. Next panics when occupied is empty.
func Next(from int, occupied []int) int {
	if len(occupied) == 0 {
		panic("seat: Next called with no occupied seats")
	}
	lowest := occupied[0]
	next := 0
	for _, s := range occupied {
		if s < lowest {
			lowest = s
		}
		if s > from && (next == 0 || s < next) {
			next = s
		}
	}
	if next == 0 {
		return lowest
	}
	return next
}

// Sorted returns a sorted copy of seats.
func Sorted(seats []int) []int {
	out := slices.Clone(seats)
	slices.Sort(out)
	return out
}

// Valid reports whether s is a seat number on the table.
func Valid(s int) bool {
	return s >= 1 && s <= MaxSeats
}

// Open returns the lowest seat in 1..limit not present in occupied.
func Open(occupied []int, limit int) (int, bool) {
	for s := 1; s <= limit; s++ {
		if !slices.Contains(occupied, s) {
			return s, true
		}
	}
	return 0, false
}

// Clockwise lists occupied seats in dealing order, starting with the first
// seat after from.
func Clockwise(from int, occupied []int) []int {
	if len(occupied) == 0 {
		return nil
	}
	out := make([]int, 0, len(occupied))
	s := from
	for range occupied {
		s = Next(s, occupied)
		out = append(out, s)
	}
	return out
}
