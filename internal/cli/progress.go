package cli

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bnsearch/pkg/recorder"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// heartbeat is how long the search may run silently before a status line.
const heartbeat = 10 * time.Second

// searchProgress logs the first recorded score, every improvement, and a
// heartbeat while the search runs without improving. It is driven by the
// recorder and timed by sample timestamps, so it needs no goroutine.
//
// It is not safe for concurrent use.
type searchProgress struct {
	logger  *log.Logger
	limit   time.Duration
	optimum score.Score
	best    score.Score
	lastLog time.Duration
	samples int
}

func newSearchProgress(l *log.Logger, limit time.Duration, optimum score.Score) *searchProgress {
	return &searchProgress{logger: l, limit: limit, optimum: optimum, best: score.Max}
}

// onRecord is the recorder callback.
func (p *searchProgress) onRecord(s recorder.Sample, improved bool) {
	p.samples++
	switch {
	case !p.best.Known():
		p.logger.Infof("Initial: %d", s.Score)
		p.lastLog = s.Elapsed
	case improved:
		if p.optimum.Known() {
			p.logger.Infof("Improved: %d (↓%d, gap %.4f%%)", s.Score, p.best-s.Score, score.RelativeGap(s.Score, p.optimum))
		} else {
			p.logger.Infof("Improved: %d (↓%d)", s.Score, p.best-s.Score)
		}
		p.lastLog = s.Elapsed
	case s.Elapsed-p.lastLog >= heartbeat:
		elapsed := s.Elapsed.Truncate(time.Second)
		if p.limit > 0 {
			p.logger.Infof("Searching... %v/%v elapsed, best %d (%d samples)", elapsed, p.limit, p.best, p.samples)
		} else {
			p.logger.Infof("Searching... %v elapsed, best %d (%d samples)", elapsed, p.best, p.samples)
		}
		p.lastLog = s.Elapsed
	}
	if improved || !p.best.Known() {
		p.best = score.Min(p.best, s.Score)
	}
}

// finish logs the outcome and warns when a known optimum was missed.
func (p *searchProgress) finish(best score.Score) {
	if !best.Known() {
		p.logger.Warn("Search recorded no result")
		return
	}
	p.logger.Infof("Best: %d (%d samples)", best, p.samples)
	if p.optimum.Known() && !score.IsOptimal(best, p.optimum) {
		p.logger.Warnf("Best is %.4f%% above the known optimum; try increasing the time limit (--time)",
			score.RelativeGap(best, p.optimum))
	}
}
