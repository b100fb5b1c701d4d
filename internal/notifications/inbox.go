package notifications

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rattanstore-backend/pkg/pagination"
)

// DefaultInboxCapacity bounds the inbox to the newest notices.
const DefaultInboxCapacity = 200

type Notice struct {
	ID        uuid.UUID  `json:"id"`
	Message   string     `json:"message"`
	Severity  Severity   `json:"severity"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func (n Notice) IsRead() bool {
	return n.ReadAt != nil
}

// Inbox is an in-process notice store for the admin panel. Notices are lost on restart.
type Inbox struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{capacity: capacity, now: time.Now}
}

// Notify implements Sink. The oldest notice is dropped once capacity is reached.
func (b *Inbox) Notify(_ context.Context, message string, severity Severity) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	if !severity.IsValid() {
		severity = SeverityInfo
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: b.now().UTC(),
	})
	if over := len(b.notices) - b.capacity; over > 0 {
		b.notices = append([]Notice(nil), b.notices[over:]...)
	}
}

type listNoticesParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// list returns up to Limit notices newest first, plus the cursor for the next page.
func (b *Inbox) list(params listNoticesParams) ([]Notice, *pagination.Cursor) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notice, 0, len(b.notices))
	for i := len(b.notices) - 1; i >= 0; i-- {
		n := b.notices[i]
		if params.UnreadOnly && n.IsRead() {
			continue
		}
		if params.Cursor != nil && !params.Cursor.After(n.CreatedAt, n.ID) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})

	limit := pagination.NormalizeLimit(params.Limit)
	if len(out) > limit {
		last := out[limit-1]
		return out[:limit], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out, nil
}

func (b *Inbox) markRead(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notices {
		if b.notices[i].ID != id {
			continue
		}
		if b.notices[i].ReadAt == nil {
			now := b.now().UTC()
			b.notices[i].ReadAt = &now
		}
		return true
	}
	return false
}

func (b *Inbox) markAllRead() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now().UTC()
	var count int64
	for i := range b.notices {
		if b.notices[i].ReadAt == nil {
			b.notices[i].ReadAt = &now
			count++
		}
	}
	return count
}

// UnreadCount feeds the admin warning badge.
func (b *Inbox) UnreadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, n := range b.notices {
		if n.ReadAt == nil {
			count++
		}
	}
	return count
}
