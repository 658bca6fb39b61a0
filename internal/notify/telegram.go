// Package notify delivers study notifications to the learner. Failures here
// are reported to the caller for logging but never interrupt scheduling.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/pkg/models"
)

// TelegramNotifier sends reminders and schedule notices through the Telegram
// Bot API to a fixed chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// SendReminders tells the learner how many cards are waiting for review.
func (n *TelegramNotifier) SendReminders(userID int64, count int) error {
	text := fmt.Sprintf("You have %d cards due for review. Time to study!", count)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %v", err)
	}
	return nil
}

// HandleCardScheduled implements the event-bus handler: lapsed cards get a
// short heads-up so chronic failures surface early.
func (n *TelegramNotifier) HandleCardScheduled(event models.CardScheduledEvent) error {
	if event.Rating != models.Again {
		return nil
	}
	text := fmt.Sprintf("Item %d was forgotten; it comes back in %d day(s).",
		event.ItemID, event.IntervalDays)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send schedule notice: %v", err)
	}
	return nil
}

// LogNotifier is the fallback notification sink writing to the process log.
type LogNotifier struct{}

// SendReminders logs the due-card count.
func (LogNotifier) SendReminders(userID int64, count int) error {
	log.Printf("notify: user %d has %d cards due for review", userID, count)
	return nil
}

// HandleCardScheduled logs the new schedule.
func (LogNotifier) HandleCardScheduled(event models.CardScheduledEvent) error {
	log.Printf("notify: card %d rated %s, next review %s",
		event.CardID, event.Rating, event.NextReviewDate.Format("2006-01-02"))
	return nil
}
