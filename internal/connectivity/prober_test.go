package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchable struct{ up atomic.Bool }

func (s *switchable) ping(ctx context.Context) error {
	if s.up.Load() {
		return nil
	}
	return errors.New("no route to host")
}

func TestCheckPublishesTransitionsOnly(t *testing.T) {
	remote := &switchable{}
	p := NewProber(remote.ping, time.Hour, time.Second, nil)
	events := p.Subscribe()
	ctx := context.Background()

	// first observation is always published
	assert.False(t, p.Check(ctx))
	assert.False(t, <-events)

	assert.False(t, p.Check(ctx))
	assert.Empty(t, events)

	remote.up.Store(true)
	assert.True(t, p.Check(ctx))
	assert.True(t, <-events)
	assert.True(t, p.Online())

	assert.True(t, p.Check(ctx))
	assert.Empty(t, events)
}

func TestSlowSubscriberSeesLatestState(t *testing.T) {
	remote := &switchable{}
	p := NewProber(remote.ping, time.Hour, time.Second, nil)
	events := p.Subscribe()
	ctx := context.Background()

	p.Check(ctx)
	remote.up.Store(true)
	p.Check(ctx)

	assert.True(t, <-events)
	assert.Empty(t, events)
}

func TestStartProbesImmediately(t *testing.T) {
	remote := &switchable{}
	remote.up.Store(true)
	p := NewProber(remote.ping, time.Hour, time.Second, nil)
	events := p.Subscribe()

	require.NoError(t, p.Start())
	assert.Error(t, p.Start())

	select {
	case online := <-events:
		assert.True(t, online)
	case <-time.After(5 * time.Second):
		t.Fatal("no probe result")
	}

	p.Stop()
	_, open := <-events
	assert.False(t, open)

	late := p.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
