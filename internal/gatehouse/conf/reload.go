package conf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/log"
)

// Reloader applies configuration edits that do not need a restart: the
// log level and the alias table. Everything else is read once.
type Reloader struct {
	loader    *Loader
	evaluator *rbac.Evaluator
	sessions  session.Cache
	aliasFile string
	watcher   *fsnotify.Watcher
}

func NewReloader(loader *Loader, cfg *AppConfig, evaluator *rbac.Evaluator, sessions session.Cache) *Reloader {
	aliasFile := cfg.Policy.AliasFile
	if aliasFile != "" {
		aliasFile = filepath.Clean(aliasFile)
	}
	return &Reloader{
		loader:    loader,
		evaluator: evaluator,
		sessions:  sessions,
		aliasFile: aliasFile,
	}
}

// Start begins watching. It returns once the watches are installed; the
// alias watcher stops with ctx.
func (r *Reloader) Start(ctx context.Context) error {
	r.loader.v.OnConfigChange(r.onConfigChange)
	r.loader.v.WatchConfig()

	if r.aliasFile == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create alias watcher: %w", err)
	}
	// editors replace files, so watch the directory
	if err := w.Add(filepath.Dir(r.aliasFile)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", r.aliasFile, err)
	}
	r.watcher = w
	go r.loop(ctx)
	return nil
}

func (r *Reloader) onConfigChange(e fsnotify.Event) {
	log.Infow("configuration changed", "file", e.Name, "op", e.Op.String())
	cfg, err := r.loader.decode()
	if err != nil {
		log.Errorw("ignoring invalid configuration change", "file", e.Name, "error", err)
		return
	}
	if cfg.Log.Level != "" {
		log.SetLevel(cfg.Log.Level)
	}
	if cfg.Policy.AliasFile != "" && filepath.Clean(cfg.Policy.AliasFile) != r.aliasFile {
		log.Warnw("policy.aliasFile changed, restart to apply", "from", r.aliasFile, "to", cfg.Policy.AliasFile)
	}
}

func (r *Reloader) loop(ctx context.Context) {
	defer r.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != r.aliasFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := r.ReloadAliases(ctx); err != nil {
				log.Errorw("keeping previous alias table", "file", r.aliasFile, "error", err)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("alias watcher error", "error", err)
		}
	}
}

// ReloadAliases re-reads the alias file and swaps it into the evaluator.
// Cached sessions hold codes expanded under the old table, so they are
// dropped. A file that fails to parse leaves the current table in place.
func (r *Reloader) ReloadAliases(ctx context.Context) error {
	if r.aliasFile == "" {
		return nil
	}
	t, err := rbac.LoadAliasFile(r.aliasFile)
	if err != nil {
		return err
	}
	r.evaluator.SetAliases(t)
	if r.sessions != nil {
		if err := r.sessions.Clear(ctx); err != nil {
			log.Warnw("failed to clear sessions after alias reload", "error", err)
		}
	}
	log.Infow("alias table reloaded", "file", r.aliasFile, "codes", len(t.Codes), "modules", len(t.Modules))
	return nil
}
