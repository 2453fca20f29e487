/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package content loads the prompts and word tiles a game is played with.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/viper"

	"github.com/Seednode/ransomnotes/internal/prompts"
)

//go:embed default.yaml
var defaultContent []byte

var (
	ErrNoPrompts = errors.New("content has no prompts")
	ErrNoWords   = errors.New("content has no words")
)

// Content is a set of prompts and the tile vocabulary.
type Content struct {
	Prompts []string
	Words   []string
}

// Default returns the built-in content.
func Default() (*Content, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultContent)); err != nil {
		return nil, fmt.Errorf("default content: %w", err)
	}

	return fromViper(v)
}

// Load reads content from a YAML file, or the built-in content when path is
// empty.
func Load(path string) (*Content, error) {
	if path == "" {
		return Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}

	c, err := fromViper(v)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}

	return c, nil
}

func fromViper(v *viper.Viper) (*Content, error) {
	c := &Content{
		Prompts: clean(v.GetStringSlice("prompts"), false),
		Words:   clean(v.GetStringSlice("words"), true),
	}

	switch {
	case len(c.Prompts) == 0:
		return nil, ErrNoPrompts
	case len(c.Words) == 0:
		return nil, ErrNoWords
	}

	return c, nil
}

// clean trims entries, drops blanks and, when unique is set, drops repeats.
func clean(in []string, unique bool) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		if unique {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
		}

		out = append(out, s)
	}

	return out
}

// Deck returns a freshly shuffled prompt deck. It matches the prompt factory
// a game session takes.
func (c *Content) Deck(rng *rand.Rand) prompts.Source {
	return prompts.NewDeck(c.Prompts, rng)
}
