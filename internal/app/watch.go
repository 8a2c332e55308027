package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hyperifyio/sheetlink/internal/fetch"
)

// Watch prints the references once, then again whenever the findings file,
// the sheet map or the document changes on disk. Every refresh reloads all
// inputs, so the sheet map is rebuilt against the current document. Load
// errors are logged and the watch continues. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, w io.Writer) error {
	files := a.watchedFiles()
	if len(files) == 0 {
		return fmt.Errorf("watch: no local input files to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files, so the parent directories are watched.
	dirs := map[string]struct{}{}
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	a.logger.Info().Int("files", len(files)).Msg("watching inputs")

	a.refresh(ctx, w)

	debounce := a.cfg.WatchDebounce
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, files) {
				continue
			}
			a.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("input changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn().Err(err).Msg("watch error")
		case <-fire:
			fire = nil
			a.refresh(ctx, w)
		}
	}
}

func (a *App) refresh(ctx context.Context, w io.Writer) {
	in, err := a.LoadInputs(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("reload failed")
		return
	}
	if err := a.writeRefs(w, in); err != nil {
		a.logger.Warn().Err(err).Msg("write references failed")
	}
}

// watchedFiles returns the absolute paths of the local inputs.
func (a *App) watchedFiles() map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range []string{a.cfg.FindingsPath, a.cfg.SheetMapPath, a.cfg.DocumentPath} {
		p = strings.TrimSpace(p)
		if p == "" || fetch.IsURL(p) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		out[abs] = struct{}{}
	}
	return out
}

func relevant(ev fsnotify.Event, files map[string]struct{}) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := files[abs]
	return ok
}
