// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	maxTimestampedBackups = 10
	weeklyRetentionWeeks  = 8
	matchesPerBackup      = 10
)

// BackupScheduler drives the periodic backups: daily at 02:00, weekly on
// Sunday at 03:00 with long retention, and a milestone backup every
// matchesPerBackup completed matches. Every job only logs on failure.
type BackupScheduler struct {
	backups *BackupService

	mu         sync.Mutex
	matchCount int
}

func NewBackupScheduler(backups *BackupService) *BackupScheduler {
	return &BackupScheduler{backups: backups}
}

func (s *BackupScheduler) Start() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] Failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	// Daily backup at 2 AM
	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(2, 0, 0))),
		gocron.NewTask(func() {
			// Default timestamped name, so the rolling cleanup covers it.
			if _, err := s.backups.CreateBackup(""); err != nil {
				log.Printf("[Scheduler] Daily backup failed: %v", err)
				return
			}
			s.backups.CleanupOldBackups(maxTimestampedBackups)
		}),
	)

	// Weekly backup on Sunday at 3 AM, kept longer than the dailies
	_, _ = sched.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Sunday), gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			name := fmt.Sprintf("weekly_backup_%s.db", time.Now().Format("20060102"))
			if _, err := s.backups.CreateBackup(name); err != nil {
				log.Printf("[Scheduler] Weekly backup failed: %v", err)
				return
			}
			s.backups.CleanupWeeklyBackups(weeklyRetentionWeeks)
		}),
	)

	log.Println("Backup scheduler started")
}

// TriggerMatchBackup counts completed matches and snapshots the store every
// matchesPerBackup-th one. Called from the scoring path; must never fail it.
func (s *BackupScheduler) TriggerMatchBackup() {
	s.mu.Lock()
	s.matchCount++
	due := s.matchCount >= matchesPerBackup
	if due {
		s.matchCount = 0
	}
	s.mu.Unlock()

	if !due {
		return
	}
	name := fmt.Sprintf("milestone_backup_%s.db", time.Now().Format("20060102_150405"))
	if _, err := s.backups.CreateBackup(name); err != nil {
		log.Printf("[Scheduler] Match milestone backup failed: %v", err)
		return
	}
	log.Printf("Match milestone backup created: %s", name)
}
