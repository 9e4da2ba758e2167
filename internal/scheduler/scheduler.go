// Package scheduler runs the optional daily learning digest: a cron'd
// delivery of the personalization summary so the user sees what the
// assistant has picked up.
package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron       *cron.Cron
	spec       string
	digestFunc func() string
	deliver    func(string)
}

// New builds a digest scheduler. spec is a standard cron expression
// (evaluated in UTC); digestFunc produces the text and deliver ships it.
func New(spec string, digestFunc func() string, deliver func(string)) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		spec:       spec,
		digestFunc: digestFunc,
		deliver:    deliver,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		digest := s.digestFunc()
		log.Printf("delivering learning digest: %q", digest)
		s.deliver(digest)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("digest scheduler started (spec %q, UTC)", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Printf("digest scheduler stopped")
}
