package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestConnectivityService_InitSeedsWithoutCallback(t *testing.T) {
	store := new(MockTicketStore)
	store.On("Ping", mock.Anything).Return(nil)

	fired := 0
	conn := NewConnectivityService(store, time.Minute, func(context.Context) { fired++ })
	conn.Init(context.Background())

	assert.True(t, conn.IsOnline())
	assert.Equal(t, 0, fired)
}

func TestConnectivityService_ReconnectFiresCallback(t *testing.T) {
	store := new(MockTicketStore)
	store.On("Ping", mock.Anything).Return(nil)

	fired := 0
	conn := NewConnectivityService(store, time.Minute, func(context.Context) { fired++ })
	conn.online.Store(false)

	assert.True(t, conn.Probe(context.Background()))
	assert.True(t, conn.IsOnline())
	assert.Equal(t, 1, fired)

	// A steady online state does not re-fire the callback.
	conn.Probe(context.Background())
	assert.Equal(t, 1, fired)
}

func TestConnectivityService_GoingOfflineOnlyFlipsFlag(t *testing.T) {
	store := new(MockTicketStore)
	store.On("Ping", mock.Anything).Return(errors.New("no route to host"))

	fired := 0
	conn := NewConnectivityService(store, time.Minute, func(context.Context) { fired++ })
	conn.online.Store(true)

	assert.False(t, conn.Probe(context.Background()))
	assert.False(t, conn.IsOnline())
	assert.Equal(t, 0, fired)
}
