package usecase

import (
	"sync"
	"time"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
)

const defaultWebhookHistoryLimit = 200

// WebhookHistory is a bounded ring of recent deliveries plus health timestamps.
type WebhookHistory struct {
	mu      sync.RWMutex
	entries []webhook.HistoryEntry
	head    int
	full    bool
	health  webhook.Health
}

func NewWebhookHistory(limit int) *WebhookHistory {
	if limit <= 0 {
		limit = defaultWebhookHistoryLimit
	}
	return &WebhookHistory{entries: make([]webhook.HistoryEntry, limit)}
}

func (h *WebhookHistory) MarkReceived(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.health.LastWebhookAt = at
}

// Record appends entry, evicting the oldest once the ring is full.
func (h *WebhookHistory) Record(entry webhook.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = entry
	h.head = (h.head + 1) % len(h.entries)
	if h.head == 0 {
		h.full = true
	}

	at := entry.ReceivedAt.Add(entry.Duration)
	switch entry.Status {
	case webhook.StatusProcessed:
		h.health.LastProcessedAt = at
	case webhook.StatusError:
		h.health.LastError = entry.Message
		h.health.LastErrorAt = at
	}
}

// List returns the recorded deliveries, newest first.
func (h *WebhookHistory) List() []webhook.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.head
	if h.full {
		n = len(h.entries)
	}
	out := make([]webhook.HistoryEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.head - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out
}

func (h *WebhookHistory) Health() webhook.Health {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

func (h *WebhookHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make([]webhook.HistoryEntry, len(h.entries))
	h.head = 0
	h.full = false
	h.health = webhook.Health{}
}
