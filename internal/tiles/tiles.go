/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tiles allocates word tiles to player hands.
//
// Everything here is a pure function of its arguments. Randomness comes from
// the *rand.Rand the caller supplies, so a seeded source yields the same hands
// every time.
package tiles

import (
	"math/rand/v2"
)

// Draw returns n tiles from vocab for a player currently holding hand.
//
// Tiles already in the hand are skipped, and no value is returned twice,
// while the distinct vocabulary can still cover n. Once it cannot, the
// remainder is drawn from the whole vocabulary with repeats allowed.
func Draw(vocab, hand []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(vocab) == 0 {
		return nil
	}

	held := make(map[string]bool, len(hand))
	for _, t := range hand {
		held[t] = true
	}

	seen := make(map[string]bool, len(vocab))
	fresh := make([]string, 0, len(vocab))
	for _, t := range vocab {
		if held[t] || seen[t] {
			continue
		}
		seen[t] = true
		fresh = append(fresh, t)
	}

	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(fresh)) {
		if len(out) == n {
			break
		}
		out = append(out, fresh[i])
	}

	for len(out) < n {
		out = append(out, vocab[rng.IntN(len(vocab))])
	}

	return out
}

// Deal returns a fresh hand of n tiles.
func Deal(vocab []string, n int, rng *rand.Rand) []string {
	return Draw(vocab, nil, n, rng)
}

// Replenish tops hand up to target tiles. The existing tiles keep their order
// and new ones are appended.
func Replenish(vocab, hand []string, target int, rng *rand.Rand) []string {
	out := make([]string, len(hand), max(target, len(hand)))
	copy(out, hand)

	return append(out, Draw(vocab, hand, target-len(hand), rng)...)
}

// Remove takes one copy of each used tile out of hand. It reports false, and
// leaves hand alone, unless used is contained in hand with multiplicities.
func Remove(hand, used []string) ([]string, bool) {
	want := counts(used)

	have := counts(hand)
	for t, n := range want {
		if have[t] < n {
			return hand, false
		}
	}

	out := make([]string, 0, len(hand)-len(used))
	for _, t := range hand {
		if want[t] > 0 {
			want[t]--
			continue
		}
		out = append(out, t)
	}

	return out, true
}

// SameTiles reports whether a and b hold the same tiles, ignoring order.
func SameTiles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	c := counts(a)
	for _, t := range b {
		if c[t] == 0 {
			return false
		}
		c[t]--
	}

	return true
}

func counts(s []string) map[string]int {
	m := make(map[string]int, len(s))
	for _, t := range s {
		m[t]++
	}
	return m
}
