package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type BroadcastService struct {
	users         ports.UserRepository
	messenger     ports.Messenger
	progressEvery int

	wg sync.WaitGroup
}

func NewBroadcastService(users ports.UserRepository, messenger ports.Messenger, progressEvery int) *BroadcastService {
	if progressEvery < 1 {
		progressEvery = 25
	}
	return &BroadcastService{
		users:         users,
		messenger:     messenger,
		progressEvery: progressEvery,
	}
}

var _ ports.BroadcastService = (*BroadcastService)(nil)

// Broadcast sends the post to every registered user. A failed delivery is
// counted and logged; it never stops the batch.
func (s *BroadcastService) Broadcast(ctx context.Context, post *domain.Post, progress ports.BroadcastProgress) (*domain.BroadcastReport, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipients: %w", err)
	}

	report := &domain.BroadcastReport{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		Total:     len(users),
		StartedAt: time.Now(),
	}
	logger := log.With().Str("broadcast", report.ID).Str("post", post.ID).Logger()

	for i, u := range users {
		if err := s.messenger.Send(ctx, post.Message(u.PlatformID)); err != nil {
			report.Failed++
			logger.Warn().Err(err).Int64("recipient", u.PlatformID).Msg("broadcast delivery failed")
		} else {
			report.Delivered++
		}

		sent := i + 1
		if progress != nil && sent%s.progressEvery == 0 && sent < len(users) {
			progress(sent, len(users))
		}
	}

	report.FinishedAt = time.Now()
	logger.Info().Int("delivered", report.Delivered).Int("failed", report.Failed).Msg("broadcast finished")
	return report, nil
}

// BroadcastAsync runs Broadcast in the background and reports progress and the
// summary to notifyChatID.
func (s *BroadcastService) BroadcastAsync(ctx context.Context, post *domain.Post, notifyChatID int64) {
	ctx = context.WithoutCancel(ctx)
	notify := func(text string) {
		if err := s.messenger.Send(ctx, domain.OutgoingMessage{ChatID: notifyChatID, Text: text}); err != nil {
			log.Warn().Err(err).Int64("chat", notifyChatID).Msg("failed to notify admin about broadcast")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report, err := s.Broadcast(ctx, post, func(sent, total int) {
			notify(fmt.Sprintf("Broadcast progress: %d/%d", sent, total))
		})
		if err != nil {
			log.Error().Err(err).Str("post", post.ID).Msg("broadcast aborted")
			notify("Could not complete the broadcast: " + err.Error())
			return
		}
		notify(FormatBroadcastReport(report))
	}()
}

func (s *BroadcastService) Wait() {
	s.wg.Wait()
}

func FormatBroadcastReport(r *domain.BroadcastReport) string {
	return fmt.Sprintf("Broadcast finished.\nRecipients: %d\nDelivered: %d\nFailed: %d", r.Total, r.Delivered, r.Failed)
}
