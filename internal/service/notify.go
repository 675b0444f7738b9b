package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tributary/tribute-ui-api/internal/domain/model"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// NoticeCenter collects human-readable notices for display. Notices are
// the only error surface end users see; raw internal errors stay in logs.
type NoticeCenter struct {
	logger *slog.Logger

	mu      sync.Mutex
	notices []model.Notice
}

var _ ports.Notifier = (*NoticeCenter)(nil)

// noticeRetention bounds how many undelivered notices are kept.
const noticeRetention = 100

// NewNoticeCenter constructs a NoticeCenter.
func NewNoticeCenter(logger *slog.Logger) *NoticeCenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoticeCenter{logger: logger}
}

// Notify records a notice for later delivery.
func (n *NoticeCenter) Notify(ctx context.Context, level model.NoticeLevel, message string) {
	notice := model.Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
	n.logger.InfoContext(ctx, "notice", "level", string(level), "message", message)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	if len(n.notices) > noticeRetention {
		n.notices = n.notices[len(n.notices)-noticeRetention:]
	}
}

// Drain returns all pending notices in emission order and clears them.
func (n *NoticeCenter) Drain() []model.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.notices
	n.notices = nil
	return out
}
