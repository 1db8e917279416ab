package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

func TestAnnouncementLog_SequenceAndSince(t *testing.T) {
	fixed := time.Date(2025, 4, 14, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	defer domain.SetClock(nil)

	log := NewAnnouncementLog(5)
	log.Announce("first")
	log.Announce("")
	log.Announce("second")

	all := log.Since(0)
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, uint64(2), all[1].Seq)
	assert.Equal(t, fixed, all[0].At)

	newer := log.Since(1)
	require.Len(t, newer, 1)
	assert.Equal(t, "second", newer[0].Text)
	assert.Empty(t, log.Since(2))
}

func TestAnnouncementLog_EvictsOldest(t *testing.T) {
	log := NewAnnouncementLog(2)
	log.Announce("a")
	log.Announce("b")
	log.Announce("c")

	entries := log.Since(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Text)
	assert.Equal(t, uint64(3), entries[1].Seq)
}

func TestAnnouncementLog_Latest(t *testing.T) {
	log := NewAnnouncementLog(0)

	_, ok := log.Latest()
	assert.False(t, ok)

	log.Announce("one")
	log.Announce("two")
	latest, ok := log.Latest()
	require.True(t, ok)
	assert.Equal(t, "two", latest.Text)
	assert.Len(t, log.Since(0), 1)
}

func TestAnnouncementLog_ConcurrentAnnounce(t *testing.T) {
	log := NewAnnouncementLog(1000)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Announce(fmt.Sprintf("msg-%d", i))
		}()
	}
	wg.Wait()

	entries := log.Since(0)
	require.Len(t, entries, 50)
	latest, _ := log.Latest()
	assert.Equal(t, uint64(50), latest.Seq)
}
