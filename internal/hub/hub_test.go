/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) Send(msg Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestBroadcastReachesEveryConnection(t *testing.T) {
	h := New(zerolog.Nop())
	msg := Message{Type: TypeGameUpdate}

	a, b := new(MockConn), new(MockConn)
	a.On("Send", msg).Return(nil).Once()
	b.On("Send", msg).Return(nil).Once()

	h.Register("g1", "p1", a)
	h.Register("g1", "p2", b)

	assert.Equal(t, 2, h.Broadcast("g1", msg))
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestBroadcastIsScopedToOneGame(t *testing.T) {
	h := New(zerolog.Nop())
	msg := Message{Type: TypeChatMessage, Data: "hi"}

	mine, other := new(MockConn), new(MockConn)
	mine.On("Send", msg).Return(nil).Once()

	h.Register("g1", "p1", mine)
	h.Register("g2", "p1", other)

	assert.Equal(t, 1, h.Broadcast("g1", msg))
	other.AssertNotCalled(t, "Send", mock.Anything)
	assert.Zero(t, h.Broadcast("missing", msg))
}

func TestFailedSendDropsConnection(t *testing.T) {
	h := New(zerolog.Nop())
	msg := Message{Type: TypeGameUpdate}

	good, bad := new(MockConn), new(MockConn)
	good.On("Send", msg).Return(nil).Twice()
	bad.On("Send", msg).Return(errors.New("broken pipe")).Once()
	bad.On("Close").Return(nil).Once()

	h.Register("g1", "p1", good)
	h.Register("g1", "p2", bad)

	assert.Equal(t, 1, h.Broadcast("g1", msg))
	assert.Equal(t, 1, h.Count("g1"))
	assert.Zero(t, h.Connections("g1", "p2"))

	assert.Equal(t, 1, h.Broadcast("g1", msg))
	good.AssertExpectations(t)
	bad.AssertExpectations(t)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := New(zerolog.Nop())
	c := new(MockConn)

	h.Register("g1", "p1", c)
	assert.Equal(t, 1, h.Connections("g1", "p1"))

	assert.True(t, h.Unregister("g1", c))
	assert.False(t, h.Unregister("g1", c))
	assert.False(t, h.Unregister("nope", c))
	assert.Zero(t, h.Count("g1"))
	c.AssertNotCalled(t, "Close")
}

func TestConnectionsPerPlayer(t *testing.T) {
	h := New(zerolog.Nop())

	tab1, tab2, other := new(MockConn), new(MockConn), new(MockConn)
	h.Register("g1", "p1", tab1)
	h.Register("g1", "p1", tab2)
	h.Register("g1", "p2", other)

	assert.Equal(t, 2, h.Connections("g1", "p1"))
	assert.Equal(t, 3, h.Count("g1"))

	msg := Message{Type: TypeError, Data: "nope"}
	tab1.On("Send", msg).Return(nil).Once()
	tab2.On("Send", msg).Return(nil).Once()
	assert.Equal(t, 2, h.SendTo("g1", "p1", msg))
	other.AssertNotCalled(t, "Send", mock.Anything)
}

func TestCloseGame(t *testing.T) {
	h := New(zerolog.Nop())

	a, b := new(MockConn), new(MockConn)
	a.On("Close").Return(nil).Once()
	b.On("Close").Return(nil).Once()

	h.Register("g1", "p1", a)
	h.Register("g1", "p2", b)

	assert.Equal(t, 2, h.CloseGame("g1"))
	assert.Zero(t, h.Count("g1"))
	assert.Zero(t, h.CloseGame("g1"))

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	h := New(zerolog.Nop())
	msg := Message{Type: TypeGameUpdate}

	conns := make([]*MockConn, 20)
	for i := range conns {
		conns[i] = new(MockConn)
		conns[i].On("Send", msg).Return(nil).Maybe()
	}

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Register("g1", "p", c)
		}()
		go func() {
			defer wg.Done()
			h.Broadcast("g1", msg)
		}()
	}
	wg.Wait()

	require.Equal(t, len(conns), h.Count("g1"))
	assert.Equal(t, len(conns), h.Broadcast("g1", msg))
}

func TestClosePlayer(t *testing.T) {
	h := New(zerolog.Nop())

	mine, other := new(MockConn), new(MockConn)
	mine.On("Close").Return(nil).Once()

	h.Register("g1", "p1", mine)
	h.Register("g1", "p2", other)

	assert.Equal(t, 1, h.ClosePlayer("g1", "p1"))
	assert.Zero(t, h.Connections("g1", "p1"))
	assert.Equal(t, 1, h.Count("g1"))
	other.AssertNotCalled(t, "Close")
	mine.AssertExpectations(t)
}
