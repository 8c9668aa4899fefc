package services

import (
	"fmt"
	"time"

	"inteqt-web/backend/models"
	"inteqt-web/backend/system"

	"gorm.io/gorm"
)

// DailyReporter posts a daily review-queue digest to the webhook.
type DailyReporter struct {
	db      *gorm.DB
	webhook *WebhookService
	stop    chan struct{}
	now     func() time.Time
}

func NewDailyReporter(db *gorm.DB, webhook *WebhookService) *DailyReporter {
	return &DailyReporter{
		db:      db,
		webhook: webhook,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
}

// DailyDigest is the data behind one report.
type DailyDigest struct {
	Pending   int64
	Submitted int64
	Approved  int64
	Rejected  int64
}

// Start schedules the report at local midnight until Stop is called.
func (r *DailyReporter) Start() {
	go func() {
		for {
			now := r.now()
			next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			system.Info("Next daily report scheduled in %v", next.Sub(now))

			select {
			case <-time.After(next.Sub(now)):
				if err := r.SendReport(); err != nil {
					system.Warn("Daily report failed: %v", err)
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop ends the schedule.
func (r *DailyReporter) Stop() {
	close(r.stop)
}

// Collect gathers counts for the 24h before the reporter's clock.
func (r *DailyReporter) Collect() (*DailyDigest, error) {
	since := r.now().Add(-24 * time.Hour)
	var d DailyDigest

	if err := r.db.Model(&models.CountryProfile{}).Where("status = ?", models.StatusPending).Count(&d.Pending).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.CountryProfile{}).
		Where("status = ? AND updated_at >= ?", models.StatusPending, since).Count(&d.Submitted).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.CountryProfile{}).
		Where("status = ? AND reviewed_at >= ?", models.StatusApproved, since).Count(&d.Approved).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.CountryProfile{}).
		Where("status = ? AND reviewed_at >= ?", models.StatusRejected, since).Count(&d.Rejected).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// SendReport generates and sends the report
func (r *DailyReporter) SendReport() error {
	if !r.webhook.IsEnabled() {
		return nil
	}

	system.Info("Generating daily review report...")
	d, err := r.Collect()
	if err != nil {
		return fmt.Errorf("collect digest: %w", err)
	}

	yesterday := r.now().Add(-24 * time.Hour)
	title := fmt.Sprintf("📊 Daily Review Report (%s)", yesterday.Format("2006-01-02"))
	desc := fmt.Sprintf("**Review Queue**\n"+
		"• Waiting for review: `%d`\n\n"+
		"**Last 24 hours**\n"+
		"• Submitted or updated: `%d`\n"+
		"• Approved: `%d`\n"+
		"• Rejected: `%d`",
		d.Pending, d.Submitted, d.Approved, d.Rejected)

	color := ColorBlue
	if d.Pending > 0 {
		color = ColorOrange
	}
	return r.webhook.SendSystemAlert(title, desc, color)
}
