package session

import (
	"sync"
	"time"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

// LiveRegion receives plain-text announcements for assistive technology.
type LiveRegion interface {
	Announce(text string)
}

// Announcement is one entry written to the live region.
type Announcement struct {
	Seq  uint64    `json:"seq"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// AnnouncementLog is an in-process LiveRegion that keeps the most recent
// announcements so a browser can poll for new ones.
type AnnouncementLog struct {
	mu      sync.Mutex
	entries []Announcement
	size    int
	next    uint64
}

// NewAnnouncementLog keeps at most size announcements; size < 1 keeps one.
func NewAnnouncementLog(size int) *AnnouncementLog {
	if size < 1 {
		size = 1
	}
	return &AnnouncementLog{size: size, entries: make([]Announcement, 0, size), next: 1}
}

// Announce appends text, evicting the oldest entry when full. Empty text is ignored.
func (l *AnnouncementLog) Announce(text string) {
	if text == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.size {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, Announcement{Seq: l.next, Text: text, At: domain.Now()})
	l.next++
}

// Since returns announcements with a sequence number greater than seq, oldest first.
func (l *AnnouncementLog) Since(seq uint64) []Announcement {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Announcement, 0, len(l.entries))
	for _, a := range l.entries {
		if a.Seq > seq {
			out = append(out, a)
		}
	}
	return out
}

// Latest returns the most recent announcement, if any.
func (l *AnnouncementLog) Latest() (Announcement, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Announcement{}, false
	}
	return l.entries[len(l.entries)-1], true
}
