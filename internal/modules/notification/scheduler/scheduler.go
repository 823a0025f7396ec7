package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
	"lintas.id/aidesk/internal/modules/notification/service"
)

// Scheduler runs the daily digest of tickets still waiting for an admin.
type Scheduler struct {
	cron     *cron.Cron
	notifier service.Notifier
	spec     string
}

func NewScheduler(notifier service.Notifier, spec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		notifier: notifier,
		spec:     spec,
	}
}

func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Println("Starting admin digest job")
		if err := s.notifier.SendDigest(context.Background()); err != nil {
			log.Printf("Admin digest job failed: %v", err)
			return
		}
		log.Println("Admin digest job completed")
	})
	if err != nil {
		log.Printf("Failed to schedule admin digest: %v", err)
		return
	}

	s.cron.Start()
	log.Printf("Digest scheduler started with cron: %s", s.spec)
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Digest scheduler stopped")
}
