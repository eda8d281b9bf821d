package utils

import (
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/logger"
	"go.uber.org/zap"
)

var spinnerFrames = []string{"\\", "|", "/", "-"}

// Spinner tracks one pending API call. On a terminal it redraws the call's
// text with the time spent so far; otherwise it only logs at debug level.
type Spinner struct {
	text  string
	start time.Time

	done     chan error
	finished chan struct{}
	once     sync.Once
	elapsed  time.Duration
}

func StartSpinner(text string) *Spinner {
	s := &Spinner{
		text:     text,
		start:    time.Now(),
		done:     make(chan error),
		finished: make(chan struct{}),
	}

	go s.run(constants.StderrInTerm() && !logger.IsDebug())

	return s
}

func elapsedString(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

func (s *Spinner) run(animate bool) {
	defer close(s.finished)

	var tick <-chan time.Time
	if animate {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		tick = t.C
	} else {
		logger.Debugf("%s...", s.text)
	}

	faint := color.New(color.Faint)
	for frame := 0; ; frame++ {
		select {
		case <-tick:
			zap.S().Infof("%s %s %s\r",
				color.YellowString(s.text),
				color.CyanString(spinnerFrames[frame%len(spinnerFrames)]),
				faint.Sprint(elapsedString(time.Since(s.start))),
			)
		case err := <-s.done:
			s.elapsed = time.Since(s.start)
			took := elapsedString(s.elapsed)

			switch {
			case !animate && err == nil:
				logger.Debugf("%s done in %s", s.text, took)
			case !animate:
				logger.Debugf("%s failed after %s", s.text, took)
			case err == nil:
				zap.S().Infof("%s %s %s", color.GreenString("✓"), s.text, faint.Sprint(took))
			default:
				zap.S().Infof("%s %s %s", color.RedString("✗"), s.text, faint.Sprint("failed after "+took))
			}
			return
		}
	}
}

// Stop ends the spinner with the outcome of the call and returns how long it
// ran. Later calls return the same duration.
func (s *Spinner) Stop(err error) time.Duration {
	s.once.Do(func() {
		s.done <- err
		<-s.finished
	})

	return s.elapsed
}
