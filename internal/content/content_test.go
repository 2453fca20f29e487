/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package content

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(c.Prompts), 40)
	assert.GreaterOrEqual(t, len(c.Words), 250)
	assert.Contains(t, c.Words, "yes")
	assert.Contains(t, c.Words, "!")
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	d, err := Default()
	require.NoError(t, err)
	assert.Equal(t, d, c)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `prompts:
  - "  first  "
  - ""
  - second
words:
  - cat
  - dog
  - cat
  - " "
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, c.Prompts)
	assert.Equal(t, []string{"cat", "dog"}, c.Words)
}

func TestLoadRejectsIncompleteContent(t *testing.T) {
	_, err := Load(writeFile(t, "words:\n  - cat\n"))
	assert.ErrorIs(t, err, ErrNoPrompts)

	_, err = Load(writeFile(t, "prompts:\n  - hello\n"))
	assert.ErrorIs(t, err, ErrNoWords)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDeckUsesEveryPrompt(t *testing.T) {
	c := &Content{Prompts: []string{"a", "b", "c"}, Words: []string{"x"}}
	deck := c.Deck(rand.New(rand.NewPCG(1, 1)))

	var got []string
	for {
		p, ok := deck.Next()
		if !ok {
			break
		}
		got = append(got, p.Text)
	}
	assert.ElementsMatch(t, c.Prompts, got)
}
