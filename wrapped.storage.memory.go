package wrapped

import (
	"context"
	"slices"
	"time"
)

// MemoryStorage keeps every template version in process memory. It suits
// tests and short-lived tools; nothing survives the process.
type MemoryStorage struct {
	gate    storageGate
	history map[string][]*StoredTemplate // name -> versions, oldest first
}

// MemoryStorageDriver opens a fresh MemoryStorage and ignores the connection string.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open implements StorageDriver.
func (d *MemoryStorageDriver) Open(string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{history: make(map[string][]*StoredTemplate)}
}

// Get returns the latest version of name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	versions := s.history[name]
	if len(versions) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(versions[len(versions)-1]), nil
}

// GetVersion returns one version of name. Versions are dense from 1, so
// the lookup is by index.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	versions := s.history[name]
	if version < 1 || version > len(versions) {
		return nil, NewStorageVersionNotFoundError(name, version)
	}
	return copyStoredTemplate(versions[version-1]), nil
}

// Save appends tmpl as the next version of its name.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateForSave(tmpl); err != nil {
		return err
	}

	done, err := s.gate.write(ctx)
	if err != nil {
		return err
	}
	defer done()

	versions := s.history[tmpl.Name]
	stored := newVersion(tmpl, len(versions)+1, time.Now())
	s.history[tmpl.Name] = append(versions, stored)
	publishVersion(tmpl, stored)
	return nil
}

// Delete drops every version of name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	done, err := s.gate.write(ctx)
	if err != nil {
		return err
	}
	defer done()

	if _, ok := s.history[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.history, name)
	return nil
}

// List returns copies of the templates matching query.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	allVersions := query != nil && query.IncludeAllVersions

	var candidates []*StoredTemplate
	for _, versions := range s.history {
		if !allVersions {
			versions = versions[len(versions)-1:]
		}
		for _, tmpl := range versions {
			candidates = append(candidates, copyStoredTemplate(tmpl))
		}
	}
	return selectTemplates(candidates, query), nil
}

// Exists reports whether name has at least one version.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return false, err
	}
	defer done()

	return len(s.history[name]) > 0, nil
}

// ListVersions returns the version numbers of name, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	numbers := make([]int, 0, len(s.history[name]))
	for _, tmpl := range s.history[name] {
		numbers = append(numbers, tmpl.Version)
	}
	slices.Reverse(numbers)
	return numbers, nil
}

// Close discards all templates. Later calls fail with a closed-storage error.
func (s *MemoryStorage) Close() error {
	return s.gate.shut(func() error {
		s.history = nil
		return nil
	})
}
