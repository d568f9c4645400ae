package session

import "math/rand"

// permutation returns an unbiased random permutation of [0, n) using
// Fisher–Yates.
func permutation(rng *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	return perm
}
