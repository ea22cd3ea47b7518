package daemon

import (
	"context"
	"fmt"
	"sync"

	"sharesync/internal/config"
	"sharesync/internal/engine"
	"sharesync/internal/gitcmd"
	"sharesync/internal/logger"
	"sharesync/internal/model"
	"sharesync/internal/pipeline"
	"sharesync/internal/repository"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type trigger struct {
	pkg       string
	direction model.Direction
}

// Manager drives watch mode: one fsnotify watcher over every enabled
// package's project subtrees, an event pipeline that conditions raw events
// into package triggers, and a periodic pull because remote-side commits
// never produce local filesystem events. One engine run executes at a time;
// triggers landing mid-run mark the package dirty for a rerun.
type Manager struct {
	cfg      *config.Config
	histRepo *repository.HistoryRepository
	watcher  *Watcher
	cron     *cron.Cron

	mu      sync.Mutex
	states  map[string]*PackageState
	pending map[string]bool

	triggerCh chan trigger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewManager(cfg *config.Config) (*Manager, error) {
	watcher, err := NewWatcher(256)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:       cfg,
		histRepo:  repository.NewHistoryRepository(),
		watcher:   watcher,
		cron:      cron.New(),
		states:    make(map[string]*PackageState),
		pending:   make(map[string]bool),
		triggerCh: make(chan trigger, 64),
		stopCh:    make(chan struct{}),
	}, nil
}

func (m *Manager) Start() error {
	enabled := m.cfg.EnabledPackages()
	if len(enabled) == 0 {
		return fmt.Errorf("no enabled packages to watch")
	}

	for _, pkg := range enabled {
		m.states[pkg.Name] = NewPackageState(pkg.Name)

		for _, mapping := range pkg.Mappings {
			dir := m.cfg.ProjectDir(mapping)
			if err := m.watcher.Watch(pkg.Name, dir); err != nil {
				logger.Log.Warn("failed to watch mapping",
					zap.String("package", pkg.Name),
					zap.String("dir", dir),
					zap.Error(err))
			}
		}
	}

	m.watcher.Start()

	debounced := pipeline.Debounce(m.watcher.Events(), m.cfg.Watch.Debounce)
	filtered := pipeline.Filter(debounced, m.cfg.IgnoreList)
	conditioned := pipeline.NewChecksumFilter().Run(filtered)

	m.wg.Add(2)
	go m.dispatchEvents(conditioned)
	go m.runLoop()

	if m.cfg.Watch.PullInterval > 0 {
		spec := fmt.Sprintf("@every %s", m.cfg.Watch.PullInterval)
		if _, err := m.cron.AddFunc(spec, m.refreshFromShared); err != nil {
			return fmt.Errorf("failed to schedule pull refresh: %w", err)
		}
		m.cron.Start()
	}

	logger.Log.Info("watch manager started",
		zap.Int("packages", len(enabled)),
		zap.Duration("pull_interval", m.cfg.Watch.PullInterval))

	return nil
}

func (m *Manager) dispatchEvents(events <-chan model.FileEvent) {
	defer m.wg.Done()

	direction, _ := model.ParseDirection(m.cfg.Watch.Direction)
	for event := range events {
		if event.Package == "" {
			continue
		}

		logger.Log.Debug("change detected",
			zap.String("package", event.Package),
			zap.String("path", event.Path),
			zap.String("type", string(event.Type)))

		m.Trigger(event.Package, direction)
	}
}

// Trigger enqueues a run for one package. Duplicate triggers for a package
// already queued collapse into one.
func (m *Manager) Trigger(pkg string, direction model.Direction) {
	key := pkg + "/" + string(direction)

	m.mu.Lock()
	if m.pending[key] {
		m.mu.Unlock()
		return
	}
	m.pending[key] = true
	m.mu.Unlock()

	select {
	case m.triggerCh <- trigger{pkg: pkg, direction: direction}:
	case <-m.stopCh:
	}
}

func (m *Manager) refreshFromShared() {
	logger.Log.Info("periodic refresh from shared repositories")
	for _, pkg := range m.cfg.EnabledPackages() {
		m.Trigger(pkg.Name, model.DirectionFromShared)
	}
}

func (m *Manager) runLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			return
		case tr := <-m.triggerCh:
			key := tr.pkg + "/" + string(tr.direction)
			m.mu.Lock()
			delete(m.pending, key)
			m.mu.Unlock()

			m.runPackage(tr)
		}
	}
}

func (m *Manager) runPackage(tr trigger) {
	pkg, ok := m.cfg.Package(tr.pkg)
	if !ok {
		logger.Log.Warn("trigger for unknown package",
			zap.String("package", tr.pkg))
		return
	}

	state := m.states[tr.pkg]
	if state == nil || !state.markRunning() {
		return
	}

	strategy, _ := model.ParseStrategy(m.cfg.Watch.Strategy)
	coordinator := engine.NewCoordinator(m.cfg, gitcmd.New(m.cfg.GitTimeout), nil)

	result := coordinator.RunPackage(context.Background(), pkg, engine.Options{
		Direction:       tr.direction,
		Strategy:        strategy,
		ContinueOnError: true,
	})

	for _, outcome := range result.Outcomes {
		if err := m.histRepo.SaveOutcome(outcome); err != nil {
			logger.Log.Warn("failed to save history",
				zap.Error(err))
		}
	}

	recordMetrics([]model.PackageResult{result})

	if rerun := state.finishRun(result); rerun {
		m.Trigger(tr.pkg, tr.direction)
	}

	logger.Log.Info("watch run finished",
		zap.String("package", pkg.Name),
		zap.String("status", string(result.Status)))
}

func (m *Manager) Snapshots() []PackageSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]PackageSnapshot, 0, len(m.states))
	for _, state := range m.states {
		snaps = append(snaps, state.Snapshot())
	}

	return snaps
}

func (m *Manager) Stop() {
	close(m.stopCh)
	m.cron.Stop()
	m.watcher.Stop()
	m.wg.Wait()
}
