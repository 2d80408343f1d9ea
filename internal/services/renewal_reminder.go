package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evrenbal/voicechat/internal/mailer"
	"github.com/evrenbal/voicechat/internal/store"
)

// RenewalReminder mails owners of subscriptions expiring in three days.
// Runs once at startup and then daily.
type RenewalReminder struct {
	billing *store.BillingStore
	mail    mailer.Mailer
	stop    chan struct{}
}

const reminderLeadDays = 3

func NewRenewalReminder(billing *store.BillingStore, mail mailer.Mailer) *RenewalReminder {
	return &RenewalReminder{
		billing: billing,
		mail:    mail,
		stop:    make(chan struct{}),
	}
}

func (r *RenewalReminder) Start() {
	go r.loop()
	slog.Info("Renewal reminder started")
}

func (r *RenewalReminder) Stop() {
	r.stop <- struct{}{}
	slog.Info("Renewal reminder stopped")
}

func (r *RenewalReminder) loop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	r.remindAll()

	for {
		select {
		case <-ticker.C:
			r.remindAll()
		case <-r.stop:
			return
		}
	}
}

func (r *RenewalReminder) remindAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	day := time.Now().AddDate(0, 0, reminderLeadDays)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	subs, err := r.billing.ExpiringBetween(ctx, from, to)
	if err != nil {
		slog.Error("Failed to load expiring subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		if sub.User == nil || sub.Plan == nil {
			continue
		}
		name := sub.User.FullName
		if name == "" {
			name = sub.User.Email
		}
		body := fmt.Sprintf("Hi %s, your %s plan expires on %s.",
			name, sub.Plan.Name, sub.EndDate.Format("2006-01-02"))
		if err := r.mail.Send(sub.User.Email, "Your subscription is expiring soon", body); err != nil {
			slog.Error("Failed to send renewal reminder", "user", sub.User.Email, "error", err)
		}
	}
}
