package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs named background jobs: repeating ones on a fixed interval
// and one-shot ones after a delay. The server uses it for the optional
// advice auto-reload; scheduling a name that is already taken replaces the
// previous job.
type Scheduler struct {
	logger *zap.Logger

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool
}

type job struct {
	cancel func()
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger, jobs: make(map[string]*job)}
}

// Every schedules fn to run repeatedly at the given interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.replace(name)

	stop := make(chan struct{})
	var once sync.Once
	s.jobs[name] = &job{cancel: func() { once.Do(func() { close(stop) }) }}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(name, fn)
			case <-stop:
				return
			}
		}
	}()
	s.logger.Info("job scheduled",
		zap.String("job", name), zap.Duration("interval", interval))
}

// Once schedules fn to run a single time after the given delay.
func (s *Scheduler) Once(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.replace(name)

	j := &job{}
	timer := time.AfterFunc(delay, func() {
		s.run(name, fn)
		s.mu.Lock()
		if s.jobs[name] == j {
			delete(s.jobs, name)
		}
		s.mu.Unlock()
	})
	j.cancel = func() { timer.Stop() }
	s.jobs[name] = j
}

// Cancel stops the named job. Unknown names are ignored.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(name)
}

// Shutdown cancels every job; the scheduler accepts no new ones after.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for name := range s.jobs {
		s.replace(name)
	}
}

// Jobs lists the scheduled job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// replace cancels and forgets an existing job. Caller holds s.mu.
func (s *Scheduler) replace(name string) {
	if j, ok := s.jobs[name]; ok {
		j.cancel()
		delete(s.jobs, name)
	}
}

// run shields the scheduler goroutine from a panicking job.
func (s *Scheduler) run(name string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("job panic", zap.String("job", name), zap.Any("panic", v))
		}
	}()
	fn()
}
