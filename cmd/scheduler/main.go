package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/perpusku/library-engine/internal/config"
	"github.com/perpusku/library-engine/internal/repository"
	"github.com/perpusku/library-engine/internal/service"
)

func main() {
	log.Println("Starting library scheduler...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	loanRepo := repository.NewLoanRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	notificationService := service.NewNotificationService(notifRepo, loanRepo)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Schedule tasks
	setupCronJobs(c, cfg, notificationService)

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, notifications *service.NotificationService) {
	// Daily job to remind members holding overdue loans
	_, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		log.Println("Running overdue reminder job...")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		sent, err := notifications.SendOverdueReminders(ctx)
		if err != nil {
			log.Printf("Overdue reminder job failed: %v", err)
			return
		}
		log.Printf("Overdue reminder job finished, %d reminders sent", sent)
	})
	if err != nil {
		log.Printf("Error scheduling overdue reminder job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
