package game

import "math/rand"

// GridSize is the board dimension; each axis gets one number per index.
const GridSize = 10

// AssignNumbers produces the row and column digit assignments for a
// starting game: two independent permutations of 0..9, each uniformly
// random among the 10! orderings. Pass a seeded *rand.Rand for
// deterministic output.
func AssignNumbers(r *rand.Rand) (rows, cols []int) {
	return permutation(r), permutation(r)
}

func permutation(r *rand.Rand) []int {
	p := make([]int, GridSize)
	for i := range p {
		p[i] = i
	}
	r.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// IsPermutation reports whether p contains every value 0..GridSize-1
// exactly once.
func IsPermutation(p []int) bool {
	if len(p) != GridSize {
		return false
	}
	seen := make([]bool, GridSize)
	for _, v := range p {
		if v < 0 || v >= GridSize || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
