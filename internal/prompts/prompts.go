/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package prompts supplies the prompt for each round.
package prompts

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Prompt is the question players answer in a round.
type Prompt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Source hands out prompts in order. Next reports false once nothing is left.
type Source interface {
	Next() (Prompt, bool)
}

// Deck is a shuffled, non-repeating Source. It is not safe for concurrent
// use; each game owns its own deck.
type Deck struct {
	prompts []Prompt
	next    int
}

// NewDeck shuffles texts with rng. Blank texts are skipped.
func NewDeck(texts []string, rng *rand.Rand) *Deck {
	d := &Deck{prompts: make([]Prompt, 0, len(texts))}

	for _, t := range texts {
		if t == "" {
			continue
		}
		d.prompts = append(d.prompts, Prompt{ID: uuid.NewString(), Text: t})
	}

	rng.Shuffle(len(d.prompts), func(i, j int) {
		d.prompts[i], d.prompts[j] = d.prompts[j], d.prompts[i]
	})

	return d
}

func (d *Deck) Next() (Prompt, bool) {
	if d.next >= len(d.prompts) {
		return Prompt{}, false
	}

	p := d.prompts[d.next]
	d.next++

	return p, true
}

// Remaining is the number of prompts not yet handed out.
func (d *Deck) Remaining() int {
	return len(d.prompts) - d.next
}

// Sequence is a Source that returns prompts in exactly the given order.
type Sequence []Prompt

func (s *Sequence) Next() (Prompt, bool) {
	if len(*s) == 0 {
		return Prompt{}, false
	}

	p := (*s)[0]
	*s = (*s)[1:]

	return p, true
}
