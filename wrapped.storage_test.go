package wrapped

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises the TemplateStorage behavior every backend shares.
func runStorageContract(t *testing.T, newStorage func(t *testing.T) TemplateStorage) {
	ctx := context.Background()

	t.Run("save assigns id and versions", func(t *testing.T) {
		storage := newStorage(t)

		v1 := &StoredTemplate{
			Name:         "greeting",
			Source:       "Hello {name}",
			Placeholders: []string{"{name}"},
			Metadata:     map[string]string{"author": "ada"},
			Tags:         []string{"public"},
		}
		require.NoError(t, storage.Save(ctx, v1))
		assert.True(t, strings.HasPrefix(string(v1.ID), TemplateIDPrefix))
		assert.Equal(t, 1, v1.Version)
		assert.False(t, v1.CreatedAt.IsZero())
		assert.False(t, v1.UpdatedAt.IsZero())

		v2 := &StoredTemplate{Name: "greeting", Source: "Hi {name}"}
		require.NoError(t, storage.Save(ctx, v2))
		assert.Equal(t, 2, v2.Version)
		assert.NotEqual(t, v1.ID, v2.ID)
	})

	t.Run("save rejects empty name", func(t *testing.T) {
		storage := newStorage(t)

		err := storage.Save(ctx, &StoredTemplate{Source: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgInvalidTemplateName)
	})

	t.Run("get returns latest with all fields", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "greeting", Source: "v1"}))
		saved := &StoredTemplate{
			Name:         "greeting",
			Source:       "v2 {{user}}",
			Placeholders: []string{"{{user}}"},
			Metadata:     map[string]string{"lang": "en"},
			Tags:         []string{"a", "b"},
		}
		require.NoError(t, storage.Save(ctx, saved))

		got, err := storage.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "v2 {{user}}", got.Source)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, []string{"{{user}}"}, got.Placeholders)
		assert.Equal(t, map[string]string{"lang": "en"}, got.Metadata)
		assert.Equal(t, []string{"a", "b"}, got.Tags)
		assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, 0)

		require.NotNil(t, got.Summary)
		assert.Equal(t, 1, got.Summary.Placeholders)
		assert.Equal(t, map[WrapperKind]int{WrapperDoubleCurly: 1}, got.Summary.ByKind)
		assert.Equal(t, []string{"user"}, got.Summary.Keys)
	})

	t.Run("save fills missing placeholder inventory", func(t *testing.T) {
		storage := newStorage(t)

		tmpl := &StoredTemplate{Name: "t", Source: "Hi {name}, see ${HOME} and { name }"}
		require.NoError(t, storage.Save(ctx, tmpl))
		assert.Equal(t, []string{"{name}", "${HOME}", "{ name }"}, tmpl.Placeholders)
		require.NotNil(t, tmpl.Summary)
		assert.Equal(t, []string{"name", "HOME"}, tmpl.Summary.Keys)

		got, err := storage.Get(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, tmpl.Placeholders, got.Placeholders)
		require.NotNil(t, got.Summary)
		assert.Equal(t, 3, got.Summary.Placeholders)
		assert.Equal(t, 2, got.Summary.ByKind[WrapperCurly])
	})

	t.Run("save keeps a supplied inventory", func(t *testing.T) {
		storage := newStorage(t)

		supplied := &Summary{Placeholders: 1, ByKind: map[WrapperKind]int{"angle": 1}, Keys: []string{"x"}}
		require.NoError(t, storage.Save(ctx, &StoredTemplate{
			Name:         "t",
			Source:       "<<x>>",
			Placeholders: []string{"<<x>>"},
			Summary:      supplied,
		}))

		got, err := storage.Get(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"<<x>>"}, got.Placeholders)
		require.NotNil(t, got.Summary)
		assert.True(t, got.Summary.HasKind("angle"))
		assert.Equal(t, []string{"x"}, got.Summary.Keys)
	})

	t.Run("get missing template", func(t *testing.T) {
		storage := newStorage(t)

		_, err := storage.Get(ctx, "missing")
		require.Error(t, err)
		assert.True(t, IsTemplateNotFound(err))
	})

	t.Run("get version", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "one"}))
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "two"}))

		got, err := storage.GetVersion(ctx, "t", 1)
		require.NoError(t, err)
		assert.Equal(t, "one", got.Source)

		_, err = storage.GetVersion(ctx, "t", 5)
		require.Error(t, err)
		assert.True(t, IsTemplateNotFound(err))
	})

	t.Run("returned templates are copies", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{
			Name:     "t",
			Source:   "x",
			Metadata: map[string]string{"k": "v"},
			Tags:     []string{"a"},
		}))

		got, err := storage.Get(ctx, "t")
		require.NoError(t, err)
		got.Metadata["k"] = "changed"
		got.Tags[0] = "changed"

		again, err := storage.Get(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, "v", again.Metadata["k"])
		assert.Equal(t, "a", again.Tags[0])
	})

	t.Run("delete removes all versions", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "1"}))
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "2"}))
		require.NoError(t, storage.Delete(ctx, "t"))

		exists, err := storage.Exists(ctx, "t")
		require.NoError(t, err)
		assert.False(t, exists)

		err = storage.Delete(ctx, "t")
		require.Error(t, err)
		assert.True(t, IsTemplateNotFound(err))
	})

	t.Run("exists", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "x"}))

		exists, err := storage.Exists(ctx, "t")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.Exists(ctx, "other")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("list versions newest first", func(t *testing.T) {
		storage := newStorage(t)

		for i := 0; i < 3; i++ {
			require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "x"}))
		}

		versions, err := storage.ListVersions(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1}, versions)

		versions, err = storage.ListVersions(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		storage := newStorage(t)

		seed := []*StoredTemplate{
			{Name: "mail.welcome", Source: "a", Tags: []string{"mail", "public"}},
			{Name: "mail.welcome", Source: "b", Tags: []string{"mail", "public"}},
			{Name: "mail.reset", Source: "c", Tags: []string{"mail"}},
			{Name: "sms.code", Source: "d", Tags: []string{"sms", "public"}},
			{Name: "mail_x", Source: "e"},
		}
		for _, tmpl := range seed {
			require.NoError(t, storage.Save(ctx, tmpl))
		}

		all, err := storage.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"mail.reset", "mail.welcome", "mail_x", "sms.code"}, templateNames(all))
		assert.Equal(t, 2, all[1].Version, "latest version only by default")

		byPrefix, err := storage.List(ctx, &TemplateQuery{NamePrefix: "mail."})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail.reset", "mail.welcome"}, templateNames(byPrefix))

		byTags, err := storage.List(ctx, &TemplateQuery{Tags: []string{"mail", "public"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail.welcome"}, templateNames(byTags))

		versions, err := storage.List(ctx, &TemplateQuery{NamePrefix: "mail.welcome", IncludeAllVersions: true})
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 2, versions[0].Version)
		assert.Equal(t, 1, versions[1].Version)

		paged, err := storage.List(ctx, &TemplateQuery{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail.welcome", "mail_x"}, templateNames(paged))

		beyond, err := storage.List(ctx, &TemplateQuery{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, beyond)
	})

	t.Run("list filters by wrapper kind and key", func(t *testing.T) {
		storage := newStorage(t)

		for _, tmpl := range []*StoredTemplate{
			{Name: "env", Source: "home=${HOME} user={user}"},
			{Name: "greet", Source: "Hello {{ user }}"},
			{Name: "note", Source: "{# todo #} plain"},
			{Name: "plain", Source: "no placeholders"},
		} {
			require.NoError(t, storage.Save(ctx, tmpl))
		}

		byKind, err := storage.List(ctx, &TemplateQuery{Kinds: []WrapperKind{WrapperDollarCurly}})
		require.NoError(t, err)
		assert.Equal(t, []string{"env"}, templateNames(byKind))

		byKey, err := storage.List(ctx, &TemplateQuery{Keys: []string{"user"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"env", "greet"}, templateNames(byKey), "keys match across wrapper kinds")

		both, err := storage.List(ctx, &TemplateQuery{
			Kinds: []WrapperKind{WrapperDoubleCurly},
			Keys:  []string{"user"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"greet"}, templateNames(both))

		allKinds, err := storage.List(ctx, &TemplateQuery{Kinds: []WrapperKind{WrapperCurly, WrapperDollarCurly}})
		require.NoError(t, err)
		assert.Equal(t, []string{"env"}, templateNames(allKinds))

		none, err := storage.List(ctx, &TemplateQuery{Keys: []string{"missing"}})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("kind filter sees only the latest version by default", func(t *testing.T) {
		storage := newStorage(t)

		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "${OLD}"}))
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "{new}"}))

		latest, err := storage.List(ctx, &TemplateQuery{Kinds: []WrapperKind{WrapperDollarCurly}})
		require.NoError(t, err)
		assert.Empty(t, latest)

		history, err := storage.List(ctx, &TemplateQuery{
			Kinds:              []WrapperKind{WrapperDollarCurly},
			IncludeAllVersions: true,
		})
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 1, history[0].Version)
	})

	t.Run("closed storage", func(t *testing.T) {
		storage := newStorage(t)
		require.NoError(t, storage.Close())

		_, err := storage.Get(ctx, "t")
		assert.Error(t, err)
		assert.Error(t, storage.Save(ctx, &StoredTemplate{Name: "t", Source: "x"}))
		_, err = storage.List(ctx, nil)
		assert.Error(t, err)
		_, err = storage.Exists(ctx, "t")
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		storage := newStorage(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.Get(canceled, "t")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, storage.Save(canceled, &StoredTemplate{Name: "t"}), context.Canceled)
	})

	t.Run("concurrent saves allocate distinct versions", func(t *testing.T) {
		storage := newStorage(t)

		const writers = 10
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "shared", Source: "x"}))
			}()
		}
		wg.Wait()

		versions, err := storage.ListVersions(ctx, "shared")
		require.NoError(t, err)
		assert.Len(t, versions, writers)
		assert.Equal(t, writers, versions[0])
	})
}

func templateNames(templates []*StoredTemplate) []string {
	names := make([]string, len(templates))
	for i, tmpl := range templates {
		names[i] = tmpl.Name
	}
	return names
}

func TestStorageDriverRegistry(t *testing.T) {
	drivers := ListStorageDrivers()
	assert.Equal(t, []string{StorageDriverNameMemory, StorageDriverNamePostgres, StorageDriverNameSQLite}, drivers)

	t.Run("open memory", func(t *testing.T) {
		storage, err := OpenStorage(StorageDriverNameMemory, "")
		require.NoError(t, err)
		defer storage.Close()
		assert.IsType(t, &MemoryStorage{}, storage)
	})

	t.Run("open sqlite", func(t *testing.T) {
		storage, err := OpenStorage(StorageDriverNameSQLite, SQLiteMemoryDSN)
		require.NoError(t, err)
		defer storage.Close()
		assert.IsType(t, &SQLiteStorage{}, storage)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStorage("redis", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStorageDriverNotFound)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
		})
	})

	t.Run("nil driver panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStorageDriver("nil-driver", nil)
		})
	})
}

func TestCopyStoredTemplate(t *testing.T) {
	assert.Nil(t, copyStoredTemplate(nil))

	summary := Summarize(Scan("{a}"))
	orig := &StoredTemplate{
		Name:         "t",
		Placeholders: []string{"{a}"},
		Summary:      &summary,
		Metadata:     map[string]string{"k": "v"},
		Tags:         []string{"x"},
	}
	cp := copyStoredTemplate(orig)
	cp.Placeholders[0] = "changed"
	cp.Summary.Keys[0] = "changed"
	cp.Summary.ByKind[WrapperCurly] = 5
	cp.Metadata["k"] = "changed"
	cp.Tags[0] = "changed"

	assert.Equal(t, "{a}", orig.Placeholders[0])
	assert.Equal(t, "a", orig.Summary.Keys[0])
	assert.Equal(t, 1, orig.Summary.ByKind[WrapperCurly])
	assert.Equal(t, "v", orig.Metadata["k"])
	assert.Equal(t, "x", orig.Tags[0])

	bare := copyStoredTemplate(&StoredTemplate{Name: "bare"})
	assert.Nil(t, bare.Placeholders)
	assert.Nil(t, bare.Summary)
	assert.Nil(t, bare.Metadata)
}

func TestSelectTemplates(t *testing.T) {
	candidates := func() []*StoredTemplate {
		return []*StoredTemplate{
			{Name: "b", Version: 1},
			{Name: "a", Version: 1},
			{Name: "b", Version: 2},
			{Name: "c", Version: 1},
		}
	}
	versions := func(templates []*StoredTemplate) []string {
		out := make([]string, len(templates))
		for i, tmpl := range templates {
			out[i] = fmt.Sprintf("%s%d", tmpl.Name, tmpl.Version)
		}
		return out
	}

	assert.Equal(t, []string{"a1", "b2", "b1", "c1"}, versions(selectTemplates(candidates(), nil)))
	assert.Equal(t, []string{"b2", "b1"}, versions(selectTemplates(candidates(), &TemplateQuery{Offset: 1, Limit: 2})))
	assert.Equal(t, []string{"a1"}, versions(selectTemplates(candidates(), &TemplateQuery{Offset: -3, Limit: 1})))
	assert.Empty(t, selectTemplates(candidates(), &TemplateQuery{Offset: 4}))
	assert.NotNil(t, selectTemplates(nil, nil), "empty result is a non-nil slice")

	assert.Empty(t, selectTemplates(candidates(), &TemplateQuery{Keys: []string{"a"}}),
		"templates without a summary never match kind or key filters")
}

func TestStorageGate(t *testing.T) {
	var gate storageGate
	ctx := context.Background()

	done, err := gate.read(ctx)
	require.NoError(t, err)
	done()

	released := 0
	release := func() error { released++; return nil }
	require.NoError(t, gate.shut(release))
	require.NoError(t, gate.shut(release))
	assert.Equal(t, 1, released, "release runs on the first shut only")

	_, err = gate.read(ctx)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = gate.write(ctx)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}
