package cnls

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/jward/cnls/internal/store"
)

// Engine owns the document lifecycle and the class-token index. Lifecycle
// notifications re-scan exactly one document; hover and definition are pure
// reads against the current snapshots.
type Engine struct {
	index *Index
	store *store.Store

	// config is the current immutable scope configuration, swapped
	// atomically on reload. Components read it per scan and never cache it
	// across a reload boundary.
	config atomic.Pointer[Config]

	// mu guards versions and workspace. versions carries the latest known
	// version per open URI; a scan result is applied only while its version
	// is still the latest, which serializes per-URI updates without a
	// global scan lock.
	mu        sync.Mutex
	versions  map[string]int32
	workspace map[string]Dialect // files discovered by the workspace scan, by URI

	workers    int
	initScopes []string

	log commonlog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithScopes sets the initial scope declarations. New fails when any
// declaration is malformed.
func WithScopes(scopes []string) Option {
	return func(e *Engine) {
		e.initScopes = scopes
	}
}

// WithWorkers bounds the background workspace-scan concurrency.
// Defaults to the CPU count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an Engine with an empty in-memory index.
func New(opts ...Option) (*Engine, error) {
	s, err := store.NewStore()
	if err != nil {
		return nil, fmt.Errorf("cnls: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("cnls: migrate: %w", err)
	}

	e := &Engine{
		index:     NewIndex(s),
		store:     s,
		versions:  make(map[string]int32),
		workspace: make(map[string]Dialect),
		workers:   runtime.NumCPU(),
		log:       commonlog.GetLogger("cnls.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	cfg := DefaultConfig()
	if len(e.initScopes) > 0 {
		parsed, errs := ParseConfig(e.initScopes)
		if len(errs) > 0 {
			s.Close()
			return nil, fmt.Errorf("cnls: %w", errs[0])
		}
		cfg = parsed
	}
	e.config.Store(cfg)
	return e, nil
}

// Close releases the Engine's index resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Config returns the current scope configuration.
func (e *Engine) Config() *Config {
	return e.config.Load()
}

// Index returns the underlying index for direct access.
func (e *Engine) Index() *Index {
	return e.index
}

// Configure replaces the scope configuration and re-scans every indexed
// document under the new rules. When any declaration is malformed the errors
// identify it and the engine keeps running under the previous configuration.
// An empty scope list restores the defaults.
func (e *Engine) Configure(ctx context.Context, scopes []string) []*ConfigError {
	cfg := DefaultConfig()
	if len(scopes) > 0 {
		parsed, errs := ParseConfig(scopes)
		if len(errs) > 0 {
			return errs
		}
		cfg = parsed
	}
	e.config.Store(cfg)

	// Open documents re-scan inline so the next query already answers under
	// the new rules. In-flight scans may still complete under the old
	// configuration, but they finish before this point or lose the version
	// race against these re-scans of the same text.
	var background []*Document
	for _, doc := range e.index.Documents(false) {
		if doc.Background {
			background = append(background, doc)
			continue
		}
		e.applyScan(ctx, doc.URI, doc.Dialect, doc.Text, doc.Version, false)
	}

	// Background snapshots re-scan off the notification path, bounded the
	// same way the workspace scan is.
	if len(background) > 0 {
		go e.rescanBackground(context.Background(), background)
	}
	return nil
}

// DidOpen indexes a newly opened document. The languageID takes precedence
// over the URI's extension when identifying the dialect; documents in
// unrecognized languages are ignored.
func (e *Engine) DidOpen(ctx context.Context, uri, languageID, text string, version int32) error {
	dialect, ok := DialectForLanguageID(languageID)
	if !ok {
		if dialect, ok = DialectForPath(uri); !ok {
			return nil
		}
	}

	e.mu.Lock()
	e.versions[uri] = version
	e.mu.Unlock()

	return e.applyScan(ctx, uri, dialect, text, version, false)
}

// DidChange re-indexes an open document with its full replacement text.
// Out-of-order notifications for the same URI are discarded by version: only
// the scan matching the latest known version is ever applied.
func (e *Engine) DidChange(ctx context.Context, uri, text string, version int32) error {
	e.mu.Lock()
	cur, open := e.versions[uri]
	if !open {
		e.mu.Unlock()
		return nil // change for a document that was never opened
	}
	if version < cur {
		e.mu.Unlock()
		return nil // superseded before we even started
	}
	e.versions[uri] = version
	e.mu.Unlock()

	doc := e.index.Get(uri)
	if doc == nil {
		return nil
	}
	return e.applyScan(ctx, uri, doc.Dialect, text, version, false)
}

// DidClose removes a document from the open set. If the workspace scan had
// discovered the file it is re-indexed read-only from disk, so definition
// results can still reach it; otherwise its tokens are dropped.
func (e *Engine) DidClose(ctx context.Context, uri string) error {
	e.mu.Lock()
	delete(e.versions, uri)
	dialect, discovered := e.workspace[uri]
	e.mu.Unlock()

	if err := e.index.Remove(uri); err != nil {
		return err
	}
	if !discovered {
		return nil
	}
	if err := e.indexWorkspaceFile(ctx, uri, dialect); err != nil {
		e.log.Warningf("re-index closed %s: %s", uri, err)
	}
	return nil
}

// applyScan scans text and installs the resulting snapshot, unless a newer
// version for the URI arrived while scanning. Background snapshots skip the
// version gate: they are keyed by the workspace scan, not by editor edits.
func (e *Engine) applyScan(ctx context.Context, uri string, dialect Dialect, text string, version int32, background bool) error {
	doc := e.scanDocument(ctx, uri, dialect, text, version, background)

	if background {
		return e.index.Replace(doc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, open := e.versions[uri]; !open || cur != version {
		return nil // superseded while scanning; discard
	}
	return e.index.Replace(doc)
}

// scanDocument builds a snapshot from text. Scan failures of any kind are
// contained here: a parse error or a panic during one document's scan
// indexes that document as empty and never affects other documents.
func (e *Engine) scanDocument(ctx context.Context, uri string, dialect Dialect, text string, version int32, background bool) (doc *Document) {
	doc = &Document{
		URI:        uri,
		Text:       text,
		Version:    version,
		Dialect:    dialect,
		Background: background,
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("scan %s: panic: %v", uri, r)
			doc.Tokens = nil
		}
	}()

	var (
		tokens []Token
		err    error
	)
	if dialect == DialectCSS {
		tokens, err = ScanStylesheet(ctx, uri, []byte(text))
	} else {
		tokens, err = ExtractTokens(ctx, uri, []byte(text), dialect, e.Config())
	}
	if err != nil {
		e.log.Warningf("scan %s: %s", uri, err)
		return doc
	}
	doc.Tokens = tokens
	return doc
}
