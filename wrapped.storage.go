package wrapped

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TemplateID identifies one stored template version: "tmpl_" + UUID.
type TemplateID string

// StoredTemplate is one version of a named template together with the
// placeholder inventory of its source.
type StoredTemplate struct {
	ID      TemplateID `json:"id"`
	Name    string     `json:"name"`
	Source  string     `json:"source"`
	Version int        `json:"version"`

	// Placeholders lists the distinct placeholders of Source in delimited
	// form, first-seen order.
	Placeholders []string `json:"placeholders,omitempty"`

	// Summary counts placeholders per wrapper kind and lists their keys.
	// List filters on it.
	Summary *Summary `json:"summary,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
	Tags     []string          `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateQuery selects templates for List. All filters must hold.
type TemplateQuery struct {
	NamePrefix string
	Tags       []string      // every tag must be present
	Kinds      []WrapperKind // every kind must be used by some placeholder
	Keys       []string      // every placeholder key must be referenced

	Limit  int // 0 means no limit
	Offset int

	// IncludeAllVersions lists every version instead of only the latest.
	IncludeAllVersions bool
}

// TemplateStorage is the interface for pluggable storage backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get retrieves the latest version of a template by name.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// GetVersion retrieves a specific version of a template.
	GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error)

	// Save stores tmpl as the next version of its name. The storage sets
	// ID, Version and timestamps, fills Placeholders and Summary when they
	// are nil, and writes all of them back into tmpl.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes all versions of a template by name.
	Delete(ctx context.Context, name string) error

	// List returns templates matching the query, ordered by name, then
	// version descending.
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists checks if a template with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// ListVersions returns all version numbers for a template, newest first.
	ListVersions(ctx context.Context, name string) ([]int, error)

	// Close releases any resources held by the storage.
	Close() error
}

// StorageDriver opens storages for OpenStorage. Drivers register in init().
type StorageDriver interface {
	Open(connectionString string) (TemplateStorage, error)
}

var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver makes a driver available under name.
// It panics if driver is nil or name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, taken := storageDrivers[name]; taken {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage connection using the named driver.
//
//	storage, err := wrapped.OpenStorage("memory", "")
//	storage, err := wrapped.OpenStorage("sqlite", "/var/lib/app/templates.db")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the registered driver names, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	return slices.Sorted(maps.Keys(storageDrivers))
}

// storageGate guards a backend: readers share it, writers and Close take it
// exclusively, and nothing passes once it is shut.
type storageGate struct {
	mu     sync.RWMutex
	closed bool
}

// read admits a reader; the returned func releases it
func (g *storageGate) read(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return nil, NewStorageClosedError()
	}
	return g.mu.RUnlock, nil
}

// write admits a writer; the returned func releases it
func (g *storageGate) write(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	return g.mu.Unlock, nil
}

// shut closes the gate and runs release once, on the first call only
func (g *storageGate) shut(release func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if release == nil {
		return nil
	}
	return release()
}

// newVersion returns the record to store as version n of tmpl: a deep
// copy with a fresh ID, timestamps at now and the placeholder inventory
// filled in. tmpl keeps its ID and version until publishVersion.
func newVersion(tmpl *StoredTemplate, n int, now time.Time) *StoredTemplate {
	indexTemplate(tmpl)

	stored := copyStoredTemplate(tmpl)
	stored.ID = TemplateID(TemplateIDPrefix + uuid.NewString())
	stored.Version = n
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return stored
}

// publishVersion copies the fields assigned by newVersion back into tmpl
// once stored is durable
func publishVersion(tmpl, stored *StoredTemplate) {
	tmpl.ID = stored.ID
	tmpl.Version = stored.Version
	tmpl.CreatedAt = stored.CreatedAt
	tmpl.UpdatedAt = stored.UpdatedAt
}

// validateForSave rejects templates that cannot be stored
func validateForSave(tmpl *StoredTemplate) error {
	if tmpl == nil || tmpl.Name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}
	return nil
}

// indexTemplate fills a missing Placeholders or Summary by scanning Source
// with the default scanner. The Engine fills both with its own catalog
// before saving, so this only decides for direct storage callers.
func indexTemplate(tmpl *StoredTemplate) {
	if tmpl.Placeholders != nil && tmpl.Summary != nil {
		return
	}
	elements := Scan(tmpl.Source)
	if tmpl.Placeholders == nil {
		tmpl.Placeholders = distinctForms(defaultScanner.catalog, elements)
	}
	if tmpl.Summary == nil {
		summary := Summarize(elements)
		tmpl.Summary = &summary
	}
}

// copyStoredTemplate returns a deep copy of tmpl
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	cp := *tmpl
	cp.Placeholders = slices.Clone(tmpl.Placeholders)
	cp.Summary = tmpl.Summary.clone()
	cp.Metadata = maps.Clone(tmpl.Metadata)
	cp.Tags = slices.Clone(tmpl.Tags)
	return &cp
}

// matches applies every filter except version selection and paging
func (q *TemplateQuery) matches(tmpl *StoredTemplate) bool {
	if !strings.HasPrefix(tmpl.Name, q.NamePrefix) {
		return false
	}
	for _, tag := range q.Tags {
		if !slices.Contains(tmpl.Tags, tag) {
			return false
		}
	}
	if len(q.Kinds) == 0 && len(q.Keys) == 0 {
		return true
	}
	if tmpl.Summary == nil {
		return false
	}
	for _, kind := range q.Kinds {
		if !tmpl.Summary.HasKind(kind) {
			return false
		}
	}
	for _, key := range q.Keys {
		if !tmpl.Summary.HasKey(key) {
			return false
		}
	}
	return true
}

// selectTemplates filters candidates by query, orders them by name then
// version descending, and applies offset and limit. candidates must
// already be copies the caller may hand out.
func selectTemplates(candidates []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	if query == nil {
		query = &TemplateQuery{}
	}

	results := slices.DeleteFunc(candidates, func(tmpl *StoredTemplate) bool {
		return !query.matches(tmpl)
	})
	slices.SortFunc(results, func(a, b *StoredTemplate) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(b.Version, a.Version)
	})

	start := min(max(query.Offset, 0), len(results))
	end := len(results)
	if query.Limit > 0 {
		end = min(start+query.Limit, end)
	}
	return append([]*StoredTemplate{}, results[start:end]...)
}
