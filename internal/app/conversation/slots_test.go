package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/weekendship/internal/domain"
)

func TestSessionSlotsReleasedEntriesAreDropped(t *testing.T) {
	slots := newSessionSlots()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		release, err := slots.acquire(ctx, domain.SessionID(id))
		require.NoError(t, err)
		release()
	}

	assert.Zero(t, slots.len())
}

func TestSessionSlotsSerializeAndKeepEntryWhileWaiting(t *testing.T) {
	slots := newSessionSlots()
	ctx := context.Background()

	release, err := slots.acquire(ctx, "a")
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		r, err := slots.acquire(ctx, "a")
		assert.NoError(t, err)
		acquired <- r
	}()

	select {
	case <-acquired:
		t.Fatal("second caller entered while the slot was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	second := <-acquired
	assert.Equal(t, 1, slots.len())

	second()
	assert.Zero(t, slots.len())
}

func TestSessionSlotsCancelledWaiterDropsEntry(t *testing.T) {
	slots := newSessionSlots()

	release, err := slots.acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slots.acquire(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)

	release()
	assert.Zero(t, slots.len())
}
