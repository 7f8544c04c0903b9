// Package watch re-runs a reconcile whenever a desired-state file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

// DefaultDebounce coalesces the burst of events editors emit on save
const DefaultDebounce = 500 * time.Millisecond

// Reconciler is the engine the watcher drives
type Reconciler interface {
	Reconcile(ctx context.Context, req sriov.Request) (types.Result, error)
}

// ResultFunc receives the outcome of every run
type ResultFunc func(doc *config.Document, result types.Result, err error)

// Watcher reconciles a desired-state file on start and after each change
type Watcher struct {
	path       string
	reconciler Reconciler
	onResult   ResultFunc
	debounce   time.Duration
	watcher    *fsnotify.Watcher
}

// New creates a watcher for path. onResult may be nil.
func New(path string, reconciler Reconciler, onResult ResultFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		path:       abs,
		reconciler: reconciler,
		onResult:   onResult,
		debounce:   DefaultDebounce,
		watcher:    watcher,
	}, nil
}

// SetDebounce overrides the delay between the last event and the run
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run reconciles once, then after every change until ctx is done.
// Runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	logging.WithField("file", w.path).Info("watching desired state file")
	w.reconcile(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isRelevant(event) {
				continue
			}
			logging.WithFields(logrus.Fields{
				"file": event.Name,
				"op":   event.Op.String(),
			}).Debug("desired state file changed")
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.WithError(err).Error("file watcher error")
		case <-timer.C:
			w.reconcile(ctx)
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reconcile(ctx context.Context) {
	entry := logging.WithFields(logrus.Fields{
		"request_id": uuid.New().String(),
		"file":       w.path,
	})

	doc, err := config.LoadDesiredState(w.path)
	if err != nil {
		entry.WithError(err).Error("failed to load desired state")
		w.report(nil, types.Result{}, err)
		return
	}

	result, err := w.reconciler.Reconcile(logging.NewContext(ctx, entry), doc.Request())
	if err != nil {
		entry.WithError(err).Error("reconcile failed")
	} else {
		entry.WithField("changed", result.Changed).Info("reconcile finished")
	}
	w.report(doc, result, err)
}

func (w *Watcher) report(doc *config.Document, result types.Result, err error) {
	if w.onResult != nil {
		w.onResult(doc, result, err)
	}
}
