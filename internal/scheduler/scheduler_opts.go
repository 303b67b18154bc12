package scheduler

import (
	"time"
)

type SchedulerOpt func(*Scheduler)

// WithTickInterval sets the cadence of the turn loop.
func WithTickInterval(d time.Duration) SchedulerOpt {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithWorkerTimeout bounds each worker's call for an action.
func WithWorkerTimeout(d time.Duration) SchedulerOpt {
	return func(s *Scheduler) {
		s.workerTimeout = d
	}
}

// WithMaxWorkerFaults sets how many consecutive faults recycle a worker.
func WithMaxWorkerFaults(n int) SchedulerOpt {
	return func(s *Scheduler) {
		s.maxFaults = n
	}
}

func WithPublishers(p ...Publisher) SchedulerOpt {
	return func(s *Scheduler) {
		s.publishers = append(s.publishers, p...)
	}
}

func WithLogSink(l LogSink) SchedulerOpt {
	return func(s *Scheduler) {
		s.logSink = l
	}
}

func WithMetricsSinks(m ...MetricsSink) SchedulerOpt {
	return func(s *Scheduler) {
		s.metrics = append(s.metrics, m...)
	}
}
