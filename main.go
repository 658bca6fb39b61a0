package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/events"
	"github.com/example/studybot/internal/export"
	"github.com/example/studybot/internal/fsrs"
	"github.com/example/studybot/internal/notify"
	"github.com/example/studybot/internal/review"
	"github.com/example/studybot/internal/scheduler"
	"github.com/example/studybot/pkg/models"
)

func main() {
	exportPath := flag.String("export", "", "write review history to the given .xlsx file and exit")
	reviewCard := flag.Int64("review", 0, "grade the given card id and exit")
	rating := flag.Int("rating", int(models.Good), "rating for -review: 1=again 2=hard 3=good 4=easy")
	latencyMs := flag.Int("latency-ms", 0, "response time in ms for -review")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cards := database.NewCardRepository(db)
	history := database.NewReviewHistoryRepository(db)
	parameters := database.NewParameterRepository(db)

	// A malformed stored parameter vector is fatal here, never per review.
	params, err := parameters.ActiveParameters(context.Background(), cfg.UserID)
	if err != nil {
		log.Fatalf("Failed to load memory-model parameters: %v", err)
	}
	engine, err := fsrs.NewEngine(params)
	if err != nil {
		log.Fatalf("Failed to build memory model engine: %v", err)
	}

	if *exportPath != "" {
		exporter := export.NewExporter(cards, history)
		if err := exporter.WriteWorkbook(context.Background(), cfg.UserID, *exportPath); err != nil {
			log.Fatalf("Failed to export review history: %v", err)
		}
		log.Printf("Review history written to %s", *exportPath)
		return
	}

	var reminder scheduler.Notifier = notify.LogNotifier{}
	var sink events.Handler = notify.LogNotifier{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram notifier unavailable, using log notifier: %v", err)
		} else {
			reminder = tg
			sink = tg
		}
	}

	bus := events.NewBus()
	bus.Subscribe(sink)
	reviews := review.NewService(db, cards, history, engine, bus)

	if *reviewCard != 0 {
		res, err := reviews.ScheduleReview(context.Background(), review.Request{
			CardID:         *reviewCard,
			Rating:         models.Rating(*rating),
			ResponseTimeMs: *latencyMs,
		})
		if err != nil {
			log.Fatalf("Failed to grade card %d: %v", *reviewCard, err)
		}
		log.Printf("Card %d rated %s: stability %.2f -> %.2f, next review %s",
			res.CardID, res.Rating,
			res.StabilityBefore, res.StabilityAfter,
			res.NextReviewDate.Format("2006-01-02"))
		return
	}

	jobs := scheduler.New(cards, reminder, cfg.UserID)
	jobs.Start()
	defer jobs.Stop()

	due, err := cards.CountDue(context.Background(), cfg.UserID)
	if err != nil {
		log.Printf("Failed to count due cards: %v", err)
	} else {
		log.Printf("Scheduler ready: %d cards due for review", due)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down", sig)
}
