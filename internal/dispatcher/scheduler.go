package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// loggingWrapper tags each tick with an execution id and logs slow ones.
func loggingWrapper(log *zap.SugaredLogger, slow time.Duration) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			executionID := uuid.NewString()
			start := time.Now()
			log.Debugw("outbox tick started", "execution_id", executionID)

			j.Run()

			elapsed := time.Since(start)
			if elapsed > slow {
				log.Warnw("outbox tick slow", "execution_id", executionID, "duration", elapsed)
				return
			}
			log.Debugw("outbox tick finished", "execution_id", executionID, "duration", elapsed)
		})
	}
}

// Scheduler runs each Dispatcher's Tick on a fixed interval. A tick that is
// still running when the next one is due makes that one skip.
//
// Ticks run on the scheduler's own context, not the caller's, so a shutdown
// signal does not abort the batch in flight. Stop ends the tick between
// batches and only cancels it when the stop deadline passes.
type Scheduler struct {
	cron        *cron.Cron
	dispatchers []*Dispatcher
	log         *zap.SugaredLogger
	ctx         context.Context
	cancel      context.CancelFunc
	stopping    chan struct{}
	stopOnce    sync.Once
}

func NewScheduler(interval time.Duration, log *zap.SugaredLogger, dispatchers ...*Dispatcher) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("dispatcher interval must be positive, got %s", interval)
	}
	if len(dispatchers) == 0 {
		return nil, fmt.Errorf("scheduler needs at least one dispatcher")
	}
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(
				cron.Recover(cl),
				loggingWrapper(log, interval),
				cron.SkipIfStillRunning(cl),
			),
		),
		dispatchers: dispatchers,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		stopping:    make(chan struct{}),
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.tick); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// tick drains every dispatcher in turn. One consumer failing does not hold
// back the others.
func (s *Scheduler) tick() {
	for _, d := range s.dispatchers {
		select {
		case <-s.stopping:
			return
		default:
		}
		if err := d.Drain(s.ctx, s.stopping); err != nil {
			s.log.Debugf("outbox %s tick stopped early: %v", d.cfg.Name, err)
		}
	}
}

func (s *Scheduler) Start() {
	s.log.Info("outbox dispatcher started")
	s.cron.Start()
}

// Stop prevents new ticks and waits for the running one to finish its current
// batch. If ctx ends first the running batch is cancelled and ctx's error is
// returned once it has unwound.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("stopping outbox dispatcher")
	s.stopOnce.Do(func() { close(s.stopping) })
	done := s.cron.Stop().Done()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		s.cancel()
		<-done
	}
	s.cancel()
	s.log.Info("outbox dispatcher stopped")
	return err
}
