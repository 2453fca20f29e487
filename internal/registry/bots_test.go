/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/hub"
)

// brain answers with the first two tiles of a hand and judges for the last
// answer offered.
type brain struct {
	mu       sync.Mutex
	answers  int
	judged   [][]string
	reaction string
	fail     error
}

func (b *brain) Answer(_ context.Context, _ string, hand []string) ([]string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.answers++
	if b.fail != nil {
		return nil, "", b.fail
	}
	return hand[:2], b.reaction, nil
}

func (b *brain) Judge(_ context.Context, _ string, answers []string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.judged = append(b.judged, answers)
	if b.fail != nil {
		return -1, b.fail
	}
	return len(answers) - 1, nil
}

func (b *brain) calls() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.answers, len(b.judged)
}

func phaseOf(t *testing.T, r *Registry, gameID, playerID string) func() game.Phase {
	return func() game.Phase {
		v, err := r.View(gameID, playerID)
		require.NoError(t, err)
		return v.Phase
	}
}

func TestBrainPlaysBots(t *testing.T) {
	b := &brain{reaction: "Nailed it"}
	r, _, _ := newTestRegistry(t, func(o *Options) { o.Brain = b })

	created, err := r.Create("Host", nil)
	require.NoError(t, err)
	g, host := created.GameID, created.Player.ID

	conn := &recorder{}
	_, err = r.Subscribe(g, host, conn)
	require.NoError(t, err)

	bot, err := r.AddBot(g, host)
	require.NoError(t, err)
	require.NoError(t, r.Start(g, host))

	require.Eventually(t, func() bool {
		v, err := r.View(g, host)
		require.NoError(t, err)
		return v.CurrentRound.SubmissionCount == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return conn.count(hub.TypeChatMessage) == 1 }, 5*time.Second, 10*time.Millisecond)
	chat, ok := conn.last().Data.(ChatMessage)
	if ok {
		assert.Equal(t, bot.Nickname, chat.Nickname)
		assert.Equal(t, "Nailed it", chat.Text)
	}

	// host judges round one, the bot judges round two
	require.NoError(t, r.Submit(g, host, hand(t, r, g, host)[:1]))
	require.NoError(t, r.SelectWinner(g, host, bot.ID))
	require.NoError(t, r.Advance(g, host))
	require.NoError(t, r.Submit(g, host, hand(t, r, g, host)[:1]))

	require.Eventually(t, func() bool { return phaseOf(t, r, g, host)() == game.PhaseResults }, 5*time.Second, 10*time.Millisecond)

	v, err := r.View(g, host)
	require.NoError(t, err)
	assert.Equal(t, host, *v.CurrentRound.WinnerID)

	answers, judgments := b.calls()
	assert.Equal(t, 2, answers)
	assert.Equal(t, 1, judgments)
}

func TestBrainFailureFallsBackToRandom(t *testing.T) {
	b := &brain{fail: errors.New("model offline")}
	r, _, _ := newTestRegistry(t, func(o *Options) { o.Brain = b })

	created, err := r.Create("Host", nil)
	require.NoError(t, err)
	g, host := created.GameID, created.Player.ID

	_, err = r.AddBot(g, host)
	require.NoError(t, err)
	_, err = r.AddBot(g, host)
	require.NoError(t, err)
	require.NoError(t, r.Start(g, host))

	require.Eventually(t, func() bool {
		v, err := r.View(g, host)
		require.NoError(t, err)
		return v.CurrentRound.SubmissionCount == 2
	}, 5*time.Second, 10*time.Millisecond)

	answers, _ := b.calls()
	assert.Equal(t, 2, answers)
}
