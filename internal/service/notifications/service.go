package notifications

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nfticket-backend/internal/common/logger"
	redisp "nfticket-backend/internal/platform/redis"
)

// Variant selects how the front-end renders a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a user-visible toast.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	At          time.Time `json:"at"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Service logs notifications, keeps them in the in-memory feed the front-end
// polls, and mirrors them to a redis stream when one is configured.
type Service struct {
	feed   *Feed
	rdb    *redisp.Client
	stream string
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(feed *Feed, rdb *redisp.Client, stream string) *Service {
	return &Service{
		feed:   feed,
		rdb:    rdb,
		stream: stream,
		log:    logger.Component("notifications"),
		now:    time.Now,
	}
}

// Notify never fails; delivery problems are logged.
func (s *Service) Notify(ctx context.Context, n Notification) {
	if s == nil {
		return
	}
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	if n.At.IsZero() {
		n.At = s.now().UTC()
	}

	ev := s.log.Info()
	if n.Variant == VariantDestructive {
		ev = s.log.Warn()
	}
	ev.Str("title", n.Title).Str("description", n.Description).Msg("Notification")

	if s.feed != nil {
		s.feed.Push(n)
	}
	if s.rdb != nil && s.stream != "" {
		err := s.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: 1000,
			Approx: true,
			Values: []interface{}{
				"title", n.Title,
				"description", n.Description,
				"variant", string(n.Variant),
				"at", n.At.Format(time.RFC3339Nano),
			},
		}).Err()
		if err != nil {
			s.log.Error().Err(err).Str("stream", s.stream).Msg("Failed to mirror notification")
		}
	}
}
