// Package watcher keeps the metrics snapshot fresh by polling repository
// HEAD hashes and re-collecting only the repos whose HEAD moved. Polling
// git metadata is cheap (one rev-parse per repo per tick) and needs no
// filesystem event plumbing.
package watcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/repowatch/internal/scanner"
)

// refreshEvery is how many poll ticks pass between repo-list refreshes, so
// newly cloned repos start being tracked without a restart.
const refreshEvery = 6

// SnapshotUpdater is the subset of the snapshot store the watcher needs.
type SnapshotUpdater interface {
	UpdateRepo(m scanner.RepoMetrics) error
}

// Status is a point-in-time view of the watch loop. The poll interval is
// reported in whole seconds and LastUpdate is omitted until the first
// change, so the JSON form stays readable.
type Status struct {
	Running             bool       `json:"running"`
	TrackedRepos        int        `json:"tracked_repos"`
	LastUpdate          *time.Time `json:"last_update,omitempty"`
	ChangesDetected     int        `json:"changes_detected"`
	PollIntervalSeconds int        `json:"poll_interval_seconds"`
}

// Watcher polls repo HEADs at a fixed interval and refreshes the snapshot
// entry for any repo whose HEAD hash changed.
type Watcher struct {
	collector *scanner.Collector
	store     SnapshotUpdater
	interval  time.Duration
	log       *zap.Logger

	// OnChange, when set, is called after each changed repo is re-collected.
	OnChange func(m scanner.RepoMetrics)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	repos      []scanner.Repo
	heads      map[string]string // repo path -> last seen HEAD hash
	changes    int
	lastUpdate time.Time
	ticks      int
}

// New creates a watcher around a collector and snapshot store.
func New(c *scanner.Collector, store SnapshotUpdater, interval time.Duration, log *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		collector: c,
		store:     store,
		interval:  interval,
		log:       log,
		heads:     make(map[string]string),
	}
}

// Start launches the poll loop. Starting an already running watcher is a
// no-op. The initial repo list and HEAD hashes are seeded synchronously so
// Status reports tracked repos as soon as Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	// Claim the running flag before releasing the lock so a concurrent
	// Start cannot spawn a second poll loop.
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	repos, err := w.collector.DiscoverRepos()
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.repos = repos
	w.heads = make(map[string]string, len(repos))
	w.cancel = cancel
	w.done = make(chan struct{})
	w.ticks = 0
	w.mu.Unlock()

	w.seedHeads(runCtx)
	w.log.Info("watch started",
		zap.Int("repos", len(repos)),
		zap.Duration("interval", w.interval))

	go w.run(runCtx)
	return nil
}

// Stop cancels the poll loop and waits for it to exit. Stopping a stopped
// watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running || w.cancel == nil {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.log.Info("watch stopped")
}

// Status reports the current loop state.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{
		Running:             w.running,
		TrackedRepos:        len(w.repos),
		ChangesDetected:     w.changes,
		PollIntervalSeconds: int(w.interval / time.Second),
	}
	if !w.lastUpdate.IsZero() {
		last := w.lastUpdate
		st.LastUpdate = &last
	}
	return st
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one poll cycle: compare every tracked repo's HEAD against the
// last seen hash and re-collect the ones that moved. Every refreshEvery
// cycles the repo list itself is rediscovered. Exposed so a single cycle
// can be driven without the ticker.
func (w *Watcher) Check(ctx context.Context) {
	w.mu.Lock()
	w.ticks++
	if w.ticks%refreshEvery == 0 {
		w.mu.Unlock()
		w.refreshRepos()
		w.mu.Lock()
	}
	repos := make([]scanner.Repo, len(w.repos))
	copy(repos, w.repos)
	w.mu.Unlock()

	insp := scanner.NewGitInspector(w.collector.GitTimeout)
	for _, repo := range repos {
		if ctx.Err() != nil {
			return
		}
		head := insp.HeadHash(ctx, repo.Path)
		if head == "" {
			// Empty or unreadable repo this cycle; keep the last known hash.
			continue
		}

		w.mu.Lock()
		prev, seen := w.heads[repo.Path]
		if !seen {
			w.heads[repo.Path] = head
		}
		w.mu.Unlock()

		if !seen || prev == head {
			continue
		}

		w.log.Info("head changed",
			zap.String("repo", repo.Name),
			zap.String("head", head))
		m := w.collector.CollectRepo(ctx, repo)
		if err := w.store.UpdateRepo(m); err != nil {
			// The old hash stays recorded so the change is retried on
			// the next cycle instead of being lost.
			w.log.Warn("snapshot update failed",
				zap.String("repo", repo.Name),
				zap.Error(err))
			continue
		}

		w.mu.Lock()
		w.heads[repo.Path] = head
		w.changes++
		w.lastUpdate = time.Now().UTC()
		w.mu.Unlock()

		if w.OnChange != nil {
			w.OnChange(m)
		}
	}
}

// seedHeads records the current HEAD of every tracked repo without treating
// it as a change.
func (w *Watcher) seedHeads(ctx context.Context) {
	insp := scanner.NewGitInspector(w.collector.GitTimeout)

	w.mu.Lock()
	repos := make([]scanner.Repo, len(w.repos))
	copy(repos, w.repos)
	w.mu.Unlock()

	for _, repo := range repos {
		if head := insp.HeadHash(ctx, repo.Path); head != "" {
			w.mu.Lock()
			w.heads[repo.Path] = head
			w.mu.Unlock()
		}
	}
}

// refreshRepos rediscovers the repo list, picking up clones and removals.
func (w *Watcher) refreshRepos() {
	repos, err := w.collector.DiscoverRepos()
	if err != nil {
		w.log.Warn("repo refresh failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	known := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		known[r.Path] = struct{}{}
	}
	for path := range w.heads {
		if _, ok := known[path]; !ok {
			delete(w.heads, path)
		}
	}
	w.repos = repos
}
