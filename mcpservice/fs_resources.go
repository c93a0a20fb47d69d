package mcpservice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// FSResources provides a concrete ResourcesCapability over a restricted slice
// of a filesystem. It can wrap either an OS directory (preferred when you
// need to defend against symlink escape) or an arbitrary fs.FS such as
// embed.FS.
//
// When backed by an OS directory, an fsnotify watcher keeps a cached listing
// of the tree; resources/list is served from the cache and only rescans after
// the watcher observed a change. Generic fs.FS backings either rescan on
// every list or, with WithPolling, diff snapshots at an interval.
//
// Security: with an OS directory root, reads resolve symlinks and reject any
// path escaping the root. With a generic fs.FS, symlinks are skipped and
// parent traversal is rejected.
type FSResources struct {
	mu sync.RWMutex

	// backing filesystem. When osRoot != "", fsys is os.DirFS(osRoot).
	fsys   fs.FS
	osRoot string // absolute, symlink-evaluated root on disk (if set)

	// presentation
	baseURI  string // scheme prefix for resource URIs (e.g. "fs://workspace")
	pageSize int

	// listing cache, valid only while a watcher or poller runs
	cache   []mcp.Resource
	cacheOK bool
	dirty   atomic.Bool

	// watcher lifecycle
	watchOnce   sync.Once
	watchCancel context.CancelFunc
	watching    atomic.Bool

	// poll fallback for generic fs.FS backings; <= 0 disables
	pollInterval time.Duration

	notifier ChangeNotifier
	log      *slog.Logger
}

// FSOption configures FSResources.
type FSOption func(*FSResources)

// WithOSDir sets the root to an OS directory. The path must exist. Symlinks
// are resolved and reads are constrained to the resolved root.
func WithOSDir(root string) FSOption {
	return func(r *FSResources) {
		abs := root
		if !filepath.IsAbs(abs) {
			if a, err := filepath.Abs(abs); err == nil {
				root = a
			}
		}
		real, err := filepath.EvalSymlinks(root)
		if err != nil {
			// Defer the error to first use if the root is missing.
			real = root
		}
		r.osRoot = real
		r.fsys = os.DirFS(real)
	}
}

// WithFS provides a generic fs.FS (e.g. embed.FS). Parent traversal is
// rejected and symlinks are not followed.
func WithFS(f fs.FS) FSOption {
	return func(r *FSResources) { r.fsys = f; r.osRoot = "" }
}

// WithBaseURI sets the URI prefix used in Resource.URI, e.g. "fs://workspace".
// Defaults to "fs://".
func WithBaseURI(base string) FSOption {
	return func(r *FSResources) { r.baseURI = strings.TrimRight(base, "/") }
}

// WithFSPageSize sets the listing page size. Defaults to 50.
func WithFSPageSize(n int) FSOption {
	return func(r *FSResources) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithPolling enables change detection for generic fs.FS backings by diffing
// snapshots at the given interval. Ignored when fsnotify is available (OS
// directory roots). Defaults to disabled.
func WithPolling(interval time.Duration) FSOption {
	return func(r *FSResources) { r.pollInterval = interval }
}

// WithFSLogger sets the logger used for watcher diagnostics.
func WithFSLogger(log *slog.Logger) FSOption {
	return func(r *FSResources) {
		if log != nil {
			r.log = log
		}
	}
}

// NewFSResources constructs a filesystem-backed resources capability.
func NewFSResources(opts ...FSOption) *FSResources {
	r := &FSResources{baseURI: "fs://", pageSize: defaultPageSize, log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ProvideResources implements ResourcesCapabilityProvider.
func (r *FSResources) ProvideResources(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error) {
	return r, true, nil
}

// Close stops the watcher or poller, if running, and closes the change
// notifier.
func (r *FSResources) Close() {
	r.mu.Lock()
	cancel := r.watchCancel
	r.watchCancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.notifier.Close()
}

// Subscriber returns a channel that ticks whenever the watched tree changes.
func (r *FSResources) Subscriber() <-chan struct{} {
	return r.notifier.Subscriber()
}

// ListResources implements ResourcesCapability.
func (r *FSResources) ListResources(ctx context.Context, _ sessions.Session, cursor *string) (Page[mcp.Resource], error) {
	if r.fsys == nil {
		return NewPage[mcp.Resource](nil), nil
	}
	r.ensureWatch()

	all, err := r.listing(ctx)
	if err != nil {
		return NewPage[mcp.Resource](nil), err
	}
	return pageSlice(all, r.pageSize, cursor)
}

// ListResourceTemplates implements ResourcesCapability. The raw filesystem
// view provides no templates.
func (r *FSResources) ListResourceTemplates(ctx context.Context, _ sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error) {
	return NewPage[mcp.ResourceTemplate](nil), nil
}

// ReadResource implements ResourcesCapability. Reads always hit the backing
// filesystem; only listings are cached.
func (r *FSResources) ReadResource(ctx context.Context, _ sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	if r.fsys == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	rel, ok := r.uriToRel(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}

	// For OS-backed roots, resolve symlinks and check containment before
	// touching the file.
	if r.osRoot != "" {
		abs := filepath.Join(r.osRoot, filepath.FromSlash(rel))
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
		}
		if !within(real, r.osRoot) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
		}
		data, err := os.ReadFile(real)
		if err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(real)))
		return []mcp.ResourceContents{contentsFor(uri, mt, data)}, nil
	}

	if !validFSPath(rel) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	data, err := fs.ReadFile(r.fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	mt := mime.TypeByExtension(strings.ToLower(path.Ext(rel)))
	return []mcp.ResourceContents{contentsFor(uri, mt, data)}, nil
}

// contentsFor picks the text or blob representation based on whether the
// bytes are valid UTF-8.
func contentsFor(uri, mimeType string, data []byte) mcp.ResourceContents {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if utf8.Valid(data) {
		return mcp.ResourceContents{URI: uri, MimeType: mimeType, Text: string(data)}
	}
	return mcp.ResourceContents{URI: uri, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(data)}
}

// listing serves the cached resource list while a watcher keeps it fresh,
// rescanning only when the watcher flagged a change. Without a watcher every
// call rescans.
func (r *FSResources) listing(ctx context.Context) ([]mcp.Resource, error) {
	if r.watching.Load() {
		if r.dirty.CompareAndSwap(true, false) {
			r.mu.Lock()
			r.cacheOK = false
			r.mu.Unlock()
		}
		r.mu.RLock()
		if r.cacheOK {
			out := make([]mcp.Resource, len(r.cache))
			copy(out, r.cache)
			r.mu.RUnlock()
			return out, nil
		}
		r.mu.RUnlock()

		all, err := r.scanFiles(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		// A change observed mid-scan leaves dirty set; the next list rescans.
		r.cache = all
		r.cacheOK = !r.dirty.Load()
		r.mu.Unlock()
		return all, nil
	}
	return r.scanFiles(ctx)
}

// ensureWatch lazily starts the fsnotify watcher (OS roots) or the snapshot
// poller (generic fs.FS with WithPolling) on first use.
func (r *FSResources) ensureWatch() {
	r.watchOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		switch {
		case r.osRoot != "":
			r.mu.Lock()
			r.watchCancel = cancel
			r.mu.Unlock()
			go r.runFsnotify(ctx)
		case r.pollInterval > 0:
			r.mu.Lock()
			r.watchCancel = cancel
			r.mu.Unlock()
			go r.runPoller(ctx)
		default:
			cancel()
		}
	})
}

// runFsnotify watches the OS directory tree rooted at osRoot. List-affecting
// events invalidate the cached listing; every event ticks the notifier.
func (r *FSResources) runFsnotify(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		r.log.Debug("fs_resources.watch.unavailable", slog.String("err", err.Error()))
		return
	}
	defer func() {
		_ = w.Close()
	}()

	// Watch every directory under the root. fsnotify does not recurse.
	addDirs := func() error {
		return filepath.WalkDir(r.osRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			return w.Add(p)
		})
	}
	if err := addDirs(); err != nil {
		r.log.Debug("fs_resources.watch.add_dirs_failed", slog.String("err", err.Error()))
	}

	r.watching.Store(true)
	defer func() {
		r.watching.Store(false)
		r.dirty.Store(true)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				// New directories need their own watch before their children
				// produce events.
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				r.dirty.Store(true)
			}
			_ = r.notifier.Notify(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log.Debug("fs_resources.watch.error", slog.String("err", err.Error()))
		}
	}
}

// runPoller diffs tree snapshots at pollInterval for backings fsnotify cannot
// watch.
func (r *FSResources) runPoller(ctx context.Context) {
	lastSnap, err := r.snapshot(ctx)
	if err != nil {
		r.log.Debug("fs_resources.poll.snapshot_failed", slog.String("err", err.Error()))
		return
	}
	r.watching.Store(true)
	defer func() {
		r.watching.Store(false)
		r.dirty.Store(true)
	}()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			curSnap, err := r.snapshot(ctx)
			if err != nil {
				continue
			}
			if !snapshotsEqual(lastSnap, curSnap) {
				lastSnap = curSnap
				r.dirty.Store(true)
				_ = r.notifier.Notify(ctx)
			}
		}
	}
}

// snapshot returns a map of path -> file metadata for all visible files.
func (r *FSResources) snapshot(ctx context.Context) (map[string]fileMeta, error) {
	if r.fsys == nil {
		return nil, errors.New("no fs configured")
	}
	rows := make(map[string]fileMeta)
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable nodes
		}
		if d.IsDir() || isSymlink(d) || !validFSPath(p) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var sz int64
		var mt time.Time
		if info, e := d.Info(); e == nil {
			sz = info.Size()
			mt = info.ModTime()
		}
		rows[p] = fileMeta{size: sz, mod: mt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type fileMeta struct {
	size int64
	mod  time.Time
}

func (a fileMeta) eq(b fileMeta) bool { return a.size == b.size && a.mod.Equal(b.mod) }

func snapshotsEqual(a, b map[string]fileMeta) bool {
	if len(a) != len(b) {
		return false
	}
	for p, am := range a {
		bm, ok := b[p]
		if !ok || !am.eq(bm) {
			return false
		}
	}
	return true
}

// scanFiles walks the tree and builds the resource listing, sorted by URI.
func (r *FSResources) scanFiles(ctx context.Context) ([]mcp.Resource, error) {
	var out []mcp.Resource
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort listing
		}
		if d.IsDir() || isSymlink(d) || !validFSPath(p) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out = append(out, mcp.Resource{
			URI:      r.relToURI(p),
			Name:     path.Base(p),
			MimeType: mime.TypeByExtension(strings.ToLower(path.Ext(p))),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out, nil
}

func isSymlink(d fs.DirEntry) bool {
	if d == nil {
		return false
	}
	if d.Type()&fs.ModeSymlink != 0 {
		return true
	}
	// Some FS implementations don't set Type; fall back to Info.
	if info, err := d.Info(); err == nil {
		return info.Mode()&fs.ModeSymlink != 0
	}
	return false
}

func validFSPath(p string) bool {
	// fs.ValidPath requires clean, no leading slash, no ".." segments.
	if !fs.ValidPath(p) {
		return false
	}
	// Reject Windows volume roots or scheme-looking segments.
	if strings.Contains(p, ":") {
		return false
	}
	return true
}

func (r *FSResources) relToURI(rel string) string {
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return r.baseURI + "/" + strings.Join(segs, "/")
}

func (r *FSResources) uriToRel(uri string) (string, bool) {
	base := strings.TrimRight(r.baseURI, "/") + "/"
	if !strings.HasPrefix(uri, base) {
		return "", false
	}
	segs := strings.Split(strings.TrimPrefix(uri, base), "/")
	for i, s := range segs {
		dec, err := url.PathUnescape(s)
		if err != nil {
			return "", false
		}
		segs[i] = dec
	}
	rel := path.Clean(strings.Join(segs, "/"))
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// within reports whether target equals root or descends from it.
func within(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}
