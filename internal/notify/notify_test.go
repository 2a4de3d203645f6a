package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryInboxKeepsNewest(t *testing.T) {
	inbox := NewMemoryInbox(2)
	sink := inbox.For("s1")

	sink.Info("one")
	sink.Success("two")
	sink.Error("three")
	inbox.For("s2").Info("other")

	got, err := inbox.Drain(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "three", got[1].Message)
	assert.Equal(t, LevelError, got[1].Level)

	again, err := inbox.Drain(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, again)

	other, err := inbox.Drain(context.Background(), "s2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

type fakeLists struct {
	mu    sync.Mutex
	lists map[string][][]byte
}

func (f *fakeLists) PushNotification(_ context.Context, id string, doc []byte, max int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[id] = append(f.lists[id], doc)
	return nil
}

func (f *fakeLists) DrainNotifications(_ context.Context, id string) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.lists[id]
	delete(f.lists, id)
	return docs, nil
}

func (f *fakeLists) len(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists[id])
}

func TestRedisInboxDeliversAsynchronously(t *testing.T) {
	lists := &fakeLists{lists: map[string][][]byte{}}
	inbox := NewRedisInbox(lists, 10, time.Minute)

	sink := inbox.For("s1")
	sink.Info("first")
	sink.Error("second")

	require.Eventually(t, func() bool { return lists.len("s1") == 2 }, time.Second, 5*time.Millisecond)

	got, err := inbox.Drain(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"first", "second"}, []string{got[0].Message, got[1].Message})
	assert.False(t, got[1].At.Before(got[0].At))
}

func TestFanout(t *testing.T) {
	a := NewMemoryInbox(5)
	b := NewMemoryInbox(5)
	sink := Fanout(a.For("s"), b.For("s"), LogSink(zap.NewNop()), Discard)

	sink.Success("quack")

	fromA, _ := a.Drain(context.Background(), "s")
	fromB, _ := b.Drain(context.Background(), "s")
	assert.Len(t, fromA, 1)
	assert.Len(t, fromB, 1)
}

func TestRecorderKeepsWarningsApart(t *testing.T) {
	r := NewRecorder()
	sink := Fanout(r, LogSink(zap.NewNop()))

	sink.Warning("2 of 3 custom ducks stayed behind")
	sink.Error("boom")

	assert.Equal(t, []string{"2 of 3 custom ducks stayed behind"}, r.Messages(LevelWarning))
	assert.Equal(t, []string{"boom"}, r.Messages(LevelError))
}
