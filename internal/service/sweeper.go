package service

import (
	"context"
	"log"
	"time"
)

// RunSweeper cancels timed-out rounds every interval until ctx is done
func (s *RoundService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			canceled, err := s.SweepExpired(ctx)
			if err != nil {
				log.Printf("Error sweeping expired rounds: %v", err)
				continue
			}
			if canceled > 0 {
				log.Printf("Canceled %d timed-out rounds", canceled)
			}
		}
	}
}
