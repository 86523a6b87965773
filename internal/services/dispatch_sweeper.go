package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DispatchSweeper periodically re-enqueues executions that were created but
// never got a dispatch attempt, so a crash between execution creation and
// the relay call cannot strand an execution in PENDING forever.
type DispatchSweeper struct {
	executionRepo ExecutionStore
	dispatch      *DispatchService

	interval  time.Duration
	sweepAge  time.Duration
	batchSize int
	stopChan  chan struct{}
}

func NewDispatchSweeper(executionRepo ExecutionStore, dispatch *DispatchService, interval, sweepAge time.Duration) *DispatchSweeper {
	return &DispatchSweeper{
		executionRepo: executionRepo,
		dispatch:      dispatch,
		interval:      interval,
		sweepAge:      sweepAge,
		batchSize:     100,
		stopChan:      make(chan struct{}),
	}
}

// Start starts the sweep loop
func (s *DispatchSweeper) Start() {
	go s.run()
	logrus.Info("Dispatch sweeper started")
}

// Stop stops the sweep loop
func (s *DispatchSweeper) Stop() {
	close(s.stopChan)
	logrus.Info("Dispatch sweeper stopped")
}

func (s *DispatchSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

// sweep re-enqueues undispatched executions older than the sweep age. The
// age threshold keeps it from racing a dispatch that is merely in flight.
func (s *DispatchSweeper) sweep() {
	cutoff := time.Now().UTC().Add(-s.sweepAge)
	execs, err := s.executionRepo.FindUndispatched(cutoff, s.batchSize)
	if err != nil {
		logrus.Errorf("Failed to find undispatched executions: %v", err)
		return
	}
	if len(execs) == 0 {
		return
	}

	logrus.Infof("Re-dispatching %d stranded executions", len(execs))
	for _, exec := range execs {
		if err := s.dispatch.RedispatchExecution(exec); err != nil {
			logrus.Errorf("Failed to re-dispatch execution %s: %v", exec.ID, err)
		}
	}
}
