package advisor

import (
	"context"
	"errors"
	"sync"

	"github.com/zweiadr/gw2advisor/cache"
	"github.com/zweiadr/gw2advisor/config"
	"github.com/zweiadr/gw2advisor/gw2api"
	"github.com/zweiadr/gw2advisor/inventory"
	"github.com/zweiadr/gw2advisor/messaging"
	"go.uber.org/zap"
)

// ErrLoadInProgress is returned when a load is started while one is
// already running.
var ErrLoadInProgress = errors.New("advisor: load already in progress")

// Status is the lifecycle snapshot exposed to the presentation layer.
type Status struct {
	Ready      bool     `json:"ready"`
	Loading    bool     `json:"loading"`
	Accounts   []string `json:"accounts"`
	EmptySlots int      `json:"empty_slots"`
	LastError  string   `json:"last_error,omitempty"`
}

// Service owns the one live model and the load pipeline around it. A load
// runs in its own goroutine; Abort cancels it cooperatively. At most one
// load runs at a time, so the model is never shared between pipelines.
type Service struct {
	cfg    *config.Config
	msg    *messaging.Messaging
	logger *zap.Logger

	// newReader builds the per-account data source; tests swap it out.
	newReader func(key string, c cache.Cache) inventory.AccountReader

	mu       sync.Mutex
	model    *inventory.Model
	cancel   context.CancelFunc
	loading  bool
	lastErr  error
	lastKeys []string
	done     chan struct{}
}

// New creates a Service.
func New(cfg *config.Config, msg *messaging.Messaging, logger *zap.Logger) *Service {
	s := &Service{cfg: cfg, msg: msg, logger: logger}
	s.newReader = func(key string, c cache.Cache) inventory.AccountReader {
		return gw2api.NewClient(cfg.GW2, key, c, logger)
	}
	return s
}

// StartLoad kicks off a load for the given API keys and returns
// immediately. Progress arrives through the messaging hub.
func (s *Service) StartLoad(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return ErrLoadInProgress
	}

	ctx, cancel := context.WithCancel(context.Background())
	model := inventory.NewModel(s.msg, s.cfg.Advisor.IncludeConsumables)
	s.model = model
	s.cancel = cancel
	s.loading = true
	s.lastErr = nil
	s.lastKeys = append([]string(nil), keys...)
	s.done = make(chan struct{})

	s.msg.Clear()
	go s.runLoad(ctx, model, keys, s.done)
	return nil
}

func (s *Service) runLoad(ctx context.Context, model *inventory.Model, keys []string, done chan struct{}) {
	defer close(done)
	err := s.load(ctx, model, keys)

	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	if err != nil {
		s.model = nil
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		s.logger.Info("account data loaded", zap.Strings("accounts", model.Accounts()))
		s.msg.Refresh()
	case errors.Is(err, context.Canceled):
		s.logger.Info("load aborted by user")
		s.msg.Abort()
	default:
		s.logger.Warn("load failed", zap.Error(err))
		s.msg.Broadcast("Load failed: " + err.Error())
		s.msg.Clear()
	}
}

// load builds fresh per-session API clients and runs the pipeline. The
// session cache lives exactly as long as the load, so a reload always sees
// fresh account data.
func (s *Service) load(ctx context.Context, model *inventory.Model, keys []string) error {
	sessionCache, err := cache.NewCache(cache.Config{
		RedisAddr:       s.cfg.Cache.RedisAddr,
		RedisPassword:   s.cfg.Cache.RedisPassword,
		RedisDB:         s.cfg.Cache.RedisDB,
		LocalGCInterval: s.cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		return err
	}
	if closer, ok := sessionCache.(interface{ Close() }); ok {
		defer closer.Close()
	}

	readers := make([]inventory.AccountReader, 0, len(keys))
	for _, key := range keys {
		reader := s.newReader(key, sessionCache)
		if v, ok := reader.(interface{ Validate(context.Context) error }); ok {
			if err := v.Validate(ctx); err != nil {
				return err
			}
		}
		readers = append(readers, reader)
	}
	return model.Load(ctx, readers)
}

// Abort cancels the running load, if any. The pipeline tears the partial
// model down on its way out.
func (s *Service) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reload re-runs the last load with the same keys. Used by the scheduled
// auto-reload; a no-op while a load is running or before the first load.
func (s *Service) Reload() {
	s.mu.Lock()
	keys := s.lastKeys
	loading := s.loading
	s.mu.Unlock()
	if loading || len(keys) == 0 {
		return
	}
	if err := s.StartLoad(keys); err != nil {
		s.logger.Warn("scheduled reload skipped", zap.Error(err))
	}
}

// Model returns the current model, or nil before the first successful load
// starts. Callers must check IsReady before running rules.
func (s *Service) Model() *inventory.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Wait blocks until the current load finishes. Used by the CLI and tests.
func (s *Service) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// LastError returns the error of the last finished load, if any.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Status snapshots the lifecycle for the presentation layer.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Loading: s.loading}
	if s.lastErr != nil && !errors.Is(s.lastErr, context.Canceled) {
		st.LastError = s.lastErr.Error()
	}
	if s.model != nil && s.model.IsReady() {
		st.Ready = true
		st.Accounts = s.model.Accounts()
		st.EmptySlots = s.model.EmptySlots()
	}
	return st
}
