package wrapped

import (
	"context"

	"go.uber.org/zap"
)

// Engine ties a scanner to an optional template storage. Templates are
// scanned once when saved, so their placeholder inventory is stored
// alongside the source and malformed sources are rejected under strict
// policy before they reach the backend.
type Engine struct {
	scanner *Scanner
	storage TemplateStorage
	logger  *zap.Logger
	metrics MetricsRecorder
	cfg     *config
}

// New creates an engine with the given options.
func New(opts ...Option) (*Engine, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		scanner: newScanner(cfg),
		storage: cfg.storage,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		cfg:     cfg,
	}

	e.logger.Debug(LogMsgEngineCreated,
		zap.String(LogFieldPolicy, cfg.policy.String()),
		zap.Bool(LogFieldStorage, cfg.storage != nil),
	)
	return e, nil
}

// MustNew creates an engine and panics if the options are invalid.
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Scanner returns the engine's scanner
func (e *Engine) Scanner() *Scanner {
	return e.scanner
}

// Storage returns the configured template storage, or nil
func (e *Engine) Storage() TemplateStorage {
	return e.storage
}

// Scan splits text into elements using the engine's catalog and policy.
func (e *Engine) Scan(text string) ([]Element, error) {
	return e.scanner.Scan(text)
}

// Formatter returns a formatter over the engine's scanner with the given resolvers.
func (e *Engine) Formatter(resolvers ...Resolver) *Formatter {
	return newFormatter(e.scanner, resolvers, e.cfg)
}

// Substitute scans text and replaces its placeholders using resolvers in order.
func (e *Engine) Substitute(text string, resolvers ...Resolver) (string, error) {
	return e.Formatter(resolvers...).Substitute(text)
}

// SaveTemplate scans tmpl.Source, records its placeholders and their
// summary with the engine's catalog, and stores it as a new version.
// Under strict policy an unterminated source is rejected and nothing is
// stored.
func (e *Engine) SaveTemplate(ctx context.Context, tmpl *StoredTemplate) error {
	if e.storage == nil {
		return NewNoStorageError()
	}
	if tmpl == nil || tmpl.Name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}

	elements, err := e.scanner.Scan(tmpl.Source)
	if err != nil {
		return err
	}
	tmpl.Placeholders = distinctForms(e.scanner.catalog, elements)
	summary := Summarize(elements)
	tmpl.Summary = &summary

	err = e.storage.Save(ctx, tmpl)
	e.metrics.RecordStorage(ctx, StorageOpSave, err)
	if err != nil {
		return err
	}

	e.logger.Debug(LogMsgTemplateSaved,
		zap.String(LogFieldTemplateName, tmpl.Name),
		zap.Int(LogFieldVersion, tmpl.Version),
		zap.Int(LogFieldPlaceholders, len(tmpl.Placeholders)),
	)
	return nil
}

// GetTemplate returns the latest stored version of name.
func (e *Engine) GetTemplate(ctx context.Context, name string) (*StoredTemplate, error) {
	if e.storage == nil {
		return nil, NewNoStorageError()
	}
	tmpl, err := e.storage.Get(ctx, name)
	e.metrics.RecordStorage(ctx, StorageOpGet, err)
	return tmpl, err
}

// GetTemplateVersion returns one stored version of name.
func (e *Engine) GetTemplateVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if e.storage == nil {
		return nil, NewNoStorageError()
	}
	tmpl, err := e.storage.GetVersion(ctx, name, version)
	e.metrics.RecordStorage(ctx, StorageOpGet, err)
	return tmpl, err
}

// DeleteTemplate removes all versions of name.
func (e *Engine) DeleteTemplate(ctx context.Context, name string) error {
	if e.storage == nil {
		return NewNoStorageError()
	}
	err := e.storage.Delete(ctx, name)
	e.metrics.RecordStorage(ctx, StorageOpDelete, err)
	if err == nil {
		e.logger.Debug(LogMsgTemplateDeleted, zap.String(LogFieldTemplateName, name))
	}
	return err
}

// ListTemplates returns stored templates matching query.
func (e *Engine) ListTemplates(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if e.storage == nil {
		return nil, NewNoStorageError()
	}
	templates, err := e.storage.List(ctx, query)
	e.metrics.RecordStorage(ctx, StorageOpList, err)
	return templates, err
}

// RenderTemplate substitutes the latest version of a stored template.
func (e *Engine) RenderTemplate(ctx context.Context, name string, resolvers ...Resolver) (string, error) {
	tmpl, err := e.GetTemplate(ctx, name)
	if err != nil {
		return "", err
	}
	return e.render(tmpl, resolvers)
}

// RenderTemplateVersion substitutes one stored version of a template.
func (e *Engine) RenderTemplateVersion(ctx context.Context, name string, version int, resolvers ...Resolver) (string, error) {
	tmpl, err := e.GetTemplateVersion(ctx, name, version)
	if err != nil {
		return "", err
	}
	return e.render(tmpl, resolvers)
}

func (e *Engine) render(tmpl *StoredTemplate, resolvers []Resolver) (string, error) {
	result, err := e.Formatter(resolvers...).Substitute(tmpl.Source)
	if err != nil {
		return "", err
	}
	e.logger.Debug(LogMsgTemplateRendered,
		zap.String(LogFieldTemplateName, tmpl.Name),
		zap.Int(LogFieldVersion, tmpl.Version),
	)
	return result, nil
}

// Close releases the storage, if any.
func (e *Engine) Close() error {
	if e.storage == nil {
		return nil
	}
	return e.storage.Close()
}
