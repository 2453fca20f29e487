/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollama(t *testing.T, reply string) (*httptest.Server, *generateRequest) {
	t.Helper()

	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(generateResponse{Response: reply})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &got
}

func TestParseAnswer(t *testing.T) {
	hand := []string{"Cheese", "explosion", "why", "why", "cat"}

	tests := []struct {
		name     string
		text     string
		tiles    []string
		reaction string
	}{
		{
			name:     "proud answer",
			text:     "TILES: cheese, \"explosion\", why\nRATING: 5 stars\nREACTION: This one's a winner!",
			tiles:    []string{"Cheese", "explosion", "why"},
			reaction: "This one's a winner!",
		},
		{
			name:  "modest answer drops the reaction",
			text:  "TILES: cat\nRATING: 2\nREACTION: meh",
			tiles: []string{"cat"},
		},
		{
			name:  "reaction none",
			text:  "TILES: cat, why\nRATING: 5\nREACTION: none",
			tiles: []string{"cat", "why"},
		},
		{
			name:  "tiles not held are skipped and repeats follow the hand",
			text:  "TILES: dog, why, why, why",
			tiles: []string{"why", "why"},
		},
		{
			name:  "bare first line",
			text:  "cat, cheese\nsome chatter",
			tiles: []string{"cat", "Cheese"},
		},
		{
			name: "nothing usable",
			text: "I cannot play this game.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles, reaction := parseAnswer(tt.text, hand)
			assert.Equal(t, tt.tiles, tiles)
			assert.Equal(t, tt.reaction, reaction)
		})
	}
}

func TestParseAnswerCapsTiles(t *testing.T) {
	hand := []string{"a", "b", "c", "d", "e", "f", "g"}
	tiles, _ := parseAnswer("TILES: a, b, c, d, e, f, g", hand)
	assert.Len(t, tiles, maxAnswerTiles)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want int
		ok   bool
	}{
		{"2", 3, 1, true},
		{"Answer 3.", 3, 2, true},
		{"12", 12, 11, true},
		{"0", 3, -1, false},
		{"4", 3, -1, false},
		{"the first one", 3, -1, false},
	}

	for _, tt := range tests {
		got, ok := parseChoice(tt.text, tt.n)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestAnswer(t *testing.T) {
	srv, got := ollama(t, "TILES: why, cat\nRATING: 4\nREACTION: Nailed it")
	c := New(srv.URL+"/", "", 0, zerolog.Nop())

	tiles, reaction, err := c.Answer(context.Background(), "Best excuse?", []string{"cat", "why", "no"})
	require.NoError(t, err)
	assert.Equal(t, []string{"why", "cat"}, tiles)
	assert.Equal(t, "Nailed it", reaction)

	assert.Equal(t, DefaultModel, got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, `"Best excuse?"`)
	assert.Contains(t, got.Prompt, `"no"`)
	assert.Equal(t, maxTokens, got.Options.NumPredict)
}

func TestAnswerWithoutUsableTiles(t *testing.T) {
	srv, _ := ollama(t, "TILES: dog")
	c := New(srv.URL, "llama3.2", time.Second, zerolog.Nop())

	_, _, err := c.Answer(context.Background(), "p", []string{"cat"})
	assert.ErrorIs(t, err, ErrNoTiles)
}

func TestJudge(t *testing.T) {
	srv, got := ollama(t, "2")
	c := New(srv.URL, "tiny", time.Second, zerolog.Nop())

	i, err := c.Judge(context.Background(), "Worst pet?", []string{"cat why", "cheese explosion"})
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, "tiny", got.Model)
	assert.Contains(t, got.Prompt, `2. "cheese explosion"`)

	srv, _ = ollama(t, "none of them")
	c = New(srv.URL, "tiny", time.Second, zerolog.Nop())
	_, err = c.Judge(context.Background(), "p", []string{"a"})
	assert.ErrorIs(t, err, ErrNoChoice)
}

func TestServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, zerolog.Nop())
	_, err := c.Generate(context.Background(), "p")
	assert.ErrorContains(t, err, "503")
	assert.False(t, c.Healthy(context.Background()))

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c = New(slow.URL, "", 50*time.Millisecond, zerolog.Nop())
	_, _, err = c.Answer(context.Background(), "p", []string{"cat"})
	assert.Error(t, err)
}

func TestHealthy(t *testing.T) {
	srv, _ := ollama(t, "")
	c := New(srv.URL, "", time.Second, zerolog.Nop())
	assert.True(t, c.Healthy(context.Background()))

	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
