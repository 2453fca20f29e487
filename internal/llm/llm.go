/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package llm lets bots answer and judge through an Ollama server.
//
// Every call is bounded by the client timeout and the caller's context.
// Callers fall back to random play on any error.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
)

const (
	DefaultModel   = "llama3.2"
	DefaultTimeout = 30 * time.Second

	maxAnswerTiles = 5
	minProudRating = 4
	temperature    = 0.9
	maxTokens      = 100
)

var (
	ErrEmptyResponse = errors.New("model returned nothing")
	ErrNoTiles       = errors.New("model used none of the offered tiles")
	ErrNoChoice      = errors.New("model did not name a valid answer")
)

type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     zerolog.Logger
}

// New returns a client for the Ollama server at baseURL. An empty model or a
// non-positive timeout get the defaults.
func New(baseURL, model string, timeout time.Duration, log zerolog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate returns the model's completion of prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Options: generateOptions{Temperature: temperature, NumPredict: maxTokens},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: unexpected status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama: decoding response: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// Healthy reports whether the server answers its model listing.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("ollama unreachable")
		return false
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Answer picks up to five tiles from hand for prompt. The reaction is a short
// chat line, set only when the model rates its own answer highly.
func (c *Client) Answer(ctx context.Context, prompt string, hand []string) ([]string, string, error) {
	if len(hand) == 0 {
		return nil, "", ErrNoTiles
	}

	text, err := c.Generate(ctx, answerPrompt(prompt, hand))
	if err != nil {
		return nil, "", err
	}

	tiles, reaction := parseAnswer(text, hand)
	if len(tiles) == 0 {
		return nil, "", ErrNoTiles
	}

	c.log.Debug().Strs("tiles", tiles).Str("reaction", reaction).Msg("bot answer")

	return tiles, reaction, nil
}

// Judge returns the index into answers of the model's favourite.
func (c *Client) Judge(ctx context.Context, prompt string, answers []string) (int, error) {
	if len(answers) == 0 {
		return -1, ErrNoChoice
	}

	text, err := c.Generate(ctx, judgePrompt(prompt, answers))
	if err != nil {
		return -1, err
	}

	i, ok := parseChoice(text, len(answers))
	if !ok {
		return -1, ErrNoChoice
	}

	return i, nil
}

func answerPrompt(prompt string, hand []string) string {
	quoted := make([]string, len(hand))
	for i, t := range hand {
		quoted[i] = strconv.Quote(t)
	}

	var b strings.Builder
	b.WriteString("You are playing a party game where you answer prompts with word tiles cut from magazines.\n\n")
	fmt.Fprintf(&b, "PROMPT: %q\n\n", prompt)
	fmt.Fprintf(&b, "YOUR AVAILABLE TILES: [%s]\n\n", strings.Join(quoted, ", "))
	b.WriteString("RULES:\n")
	b.WriteString("- Pick 1-5 tiles from your available tiles to form your answer\n")
	b.WriteString("- Arrange them so they make a funny, clever or absurd response to the prompt\n")
	b.WriteString("- Only use tiles from your available tiles, spelled exactly\n\n")
	b.WriteString("Respond in this exact format:\n")
	b.WriteString("TILES: word1, word2, word3\n")
	b.WriteString("RATING: [1-5, where 5 means you think this answer is hilarious]\n")
	b.WriteString("REACTION: [if 4 or 5, a SHORT excited comment about your answer, at most 10 words, otherwise none]\n")

	return b.String()
}

func judgePrompt(prompt string, answers []string) string {
	var b strings.Builder
	b.WriteString("You are judging a party game where players answer prompts with word tiles.\n\n")
	fmt.Fprintf(&b, "PROMPT: %q\n\n", prompt)
	b.WriteString("SUBMISSIONS:\n")
	for i, a := range answers {
		fmt.Fprintf(&b, "%d. %q\n", i+1, a)
	}
	b.WriteString("\nPick the funniest, most clever or most creative answer.\n")
	b.WriteString("Respond with ONLY the number of your choice. Nothing else.\n")

	return b.String()
}

// parseAnswer reads the TILES, RATING and REACTION lines of a reply. Tiles
// match the hand ignoring case and quotes; each hand tile is used at most as
// often as it is held.
func parseAnswer(text string, hand []string) ([]string, string) {
	var tilesLine, reaction string
	rating := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "TILES":
			tilesLine = value
		case "RATING":
			rating = firstDigit(value)
		case "REACTION":
			switch strings.ToLower(value) {
			case "", "none", "n/a", "-":
			default:
				reaction = value
			}
		}
	}

	if tilesLine == "" {
		tilesLine, _, _ = strings.Cut(strings.TrimSpace(text), "\n")
	}

	left := make(map[string][]string)
	for _, t := range hand {
		k := strings.ToLower(t)
		left[k] = append(left[k], t)
	}

	var tiles []string
	for _, part := range strings.Split(tilesLine, ",") {
		k := strings.ToLower(strings.Trim(strings.TrimSpace(part), `"'`))
		if held := left[k]; len(held) > 0 {
			tiles = append(tiles, held[0])
			left[k] = held[1:]
			if len(tiles) == maxAnswerTiles {
				break
			}
		}
	}

	if rating < minProudRating {
		reaction = ""
	}

	return tiles, reaction
}

// parseChoice reads the first number in a reply as a 1-based choice among n.
func parseChoice(text string, n int) (int, bool) {
	start := strings.IndexFunc(text, unicode.IsDigit)
	if start < 0 {
		return -1, false
	}

	end := start
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}

	choice, err := strconv.Atoi(text[start:end])
	if err != nil || choice < 1 || choice > n {
		return -1, false
	}

	return choice - 1, true
}

func firstDigit(s string) int {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return int(r - '0')
		}
	}
	return 0
}
