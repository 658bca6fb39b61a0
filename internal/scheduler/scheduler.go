// Package scheduler runs the periodic due-card reminder job.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studybot/internal/database"
)

// Default window of day hours (UTC) inside which reminders may fire.
const (
	DefaultReminderStartHour = 8
	DefaultReminderEndHour   = 22
)

// Notifier delivers a due-card reminder to the learner.
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// Scheduler checks hourly for due cards and pings the notifier when the
// learner has reviews waiting inside the configured hour window.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cards     *database.CardRepository
	notifier  Notifier
	userID    int64
	startHour int
	endHour   int
}

// New creates a scheduler with the default reminder window.
func New(cards *database.CardRepository, notifier Notifier, userID int64) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cards:     cards,
		notifier:  notifier,
		userID:    userID,
		startHour: DefaultReminderStartHour,
		endHour:   DefaultReminderEndHour,
	}
}

// Start begins running the reminder job without blocking.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	hour := time.Now().UTC().Hour()
	if hour < s.startHour || hour >= s.endHour {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.cards.CountDue(ctx, s.userID)
	if err != nil {
		log.Printf("scheduler: failed to count due cards: %v", err)
		return
	}
	if count == 0 {
		return
	}
	if err := s.notifier.SendReminders(s.userID, count); err != nil {
		log.Printf("scheduler: failed to send reminders: %v", err)
	}
}
