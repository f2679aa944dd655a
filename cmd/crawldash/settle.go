package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/dashboard"
)

// settlementLog collects crawl settlements for printing after the crawls
// have finished.
type settlementLog struct {
	mu          sync.Mutex
	settlements []coordinator.Settlement
}

func newSettlementLog() *settlementLog {
	return &settlementLog{}
}

// option registers the log with the dashboard coordinator.
func (l *settlementLog) option() dashboard.Option {
	return dashboard.WithCoordinatorOptions(coordinator.WithSettleFunc(l.add))
}

func (l *settlementLog) add(s coordinator.Settlement) {
	if s.Outcome == coordinator.OutcomeStale {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settlements = append(l.settlements, s)
}

// print writes one line per settlement ordered by id. It returns an error
// if any crawl failed.
func (l *settlementLog) print(w io.Writer) error {
	l.mu.Lock()
	settlements := slices.Clone(l.settlements)
	l.mu.Unlock()

	slices.SortFunc(settlements, func(a, b coordinator.Settlement) int {
		return cmp.Compare(a.ID, b.ID)
	})

	failed := 0
	for _, s := range settlements {
		elapsed := s.Duration.Round(time.Millisecond)
		switch s.Outcome {
		case coordinator.OutcomeDone:
			fmt.Fprintf(w, "URL #%d: done in %s (%d internal, %d external, %d broken links)\n",
				s.ID, elapsed, s.Report.InternalLinks, s.Report.ExternalLinks, s.Report.BrokenLinks)
		case coordinator.OutcomeCancelled:
			fmt.Fprintf(w, "URL #%d: cancelled after %s\n", s.ID, elapsed)
		default:
			failed++
			fmt.Fprintf(w, "URL #%d: failed after %s: %v\n", s.ID, elapsed, s.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d crawl(s) failed", failed, len(settlements))
	}
	return nil
}
