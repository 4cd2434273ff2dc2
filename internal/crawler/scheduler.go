package crawler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"campus-chatbot-backend/internal/logger"
)

// URLSource lists the website URLs currently present in the knowledge base.
type URLSource interface {
	DistinctSourceURLs(ctx context.Context) ([]string, error)
}

// RescrapeFunc re-ingests one URL. It owns its own error handling; the
// scheduler only logs failures and moves on to the next URL.
type RescrapeFunc func(ctx context.Context, url string) error

// Scheduler periodically re-scrapes every website source so stored chunks
// track the live pages.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	ctx       context.Context
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// ScheduleRescrape runs a full re-scrape sweep every interval.
func (s *Scheduler) ScheduleRescrape(interval time.Duration, source URLSource, rescrape RescrapeFunc) error {
	_, err := s.scheduler.Every(interval).Tag("rescrape-sources").Do(func() {
		s.runSweep(source, rescrape)
	})
	return err
}

func (s *Scheduler) runSweep(source URLSource, rescrape RescrapeFunc) {
	urls, err := source.DistinctSourceURLs(s.ctx)
	if err != nil {
		logger.Error("Re-scrape sweep could not list sources", "error", err)
		return
	}
	if len(urls) == 0 {
		return
	}

	logger.Info("Re-scrape sweep starting", "sources", len(urls))
	failed := 0
	for _, u := range urls {
		if s.ctx.Err() != nil {
			return
		}
		if err := rescrape(s.ctx, u); err != nil {
			failed++
			logger.Warn("Re-scrape failed", "url", u, "error", err)
		}
	}
	logger.Info("Re-scrape sweep finished", "sources", len(urls), "failed", failed)
}
