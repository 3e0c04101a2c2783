package wrapped

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// sqlDialect captures what differs between the SQL backends
type sqlDialect struct {
	// bind returns the placeholder for the n-th (1-based) query argument
	bind func(n int) string

	// timeArg converts a timestamp to the driver's column value
	timeArg func(t time.Time) any

	// isolation is used for the version-allocating transaction in Save
	isolation sql.IsolationLevel

	jsonType string // column type of JSON documents
	timeType string // column type of timestamps

	// migrations returns backend-only schema steps, numbered after the shared ones
	migrations func(table string) []sqlMigration
}

// sqlStore implements TemplateStorage over database/sql. The SQLite and
// Postgres storages embed it and only contribute connection setup and
// dialect.
type sqlStore struct {
	gate            storageGate
	db              *sql.DB
	table           string
	migrationsTable string
	dialect         sqlDialect
	queryTimeout    time.Duration
}

// sqlTemplateColumns is the column order of scanStoredTemplate and templateRow
const sqlTemplateColumns = "id, name, source, version, placeholders, summary, metadata, tags, created_at, updated_at"

// withTimeout bounds ctx by the configured query timeout
func (s *sqlStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// selectOne reads the first template row matching clause. found is false
// when no row matches; err is set only for gate or driver failures.
func (s *sqlStore) selectOne(ctx context.Context, name, clause string, args ...any) (tmpl *StoredTemplate, found bool, err error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, false, err
	}
	defer done()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s %s", sqlTemplateColumns, s.table, clause)
	tmpl, err = scanStoredTemplate(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, newStorageQueryError(ErrMsgQueryFailed, name, err)
	}
	return tmpl, true, nil
}

// Get retrieves the latest version of a template by name.
func (s *sqlStore) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	clause := fmt.Sprintf("WHERE name = %s ORDER BY version DESC LIMIT 1", s.dialect.bind(1))
	tmpl, found, err := s.selectOne(ctx, name, clause, name)
	if err == nil && !found {
		err = NewTemplateNotFoundError(name)
	}
	return tmpl, err
}

// GetVersion retrieves a specific version of a template.
func (s *sqlStore) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	clause := fmt.Sprintf("WHERE name = %s AND version = %s", s.dialect.bind(1), s.dialect.bind(2))
	tmpl, found, err := s.selectOne(ctx, name, clause, name, version)
	if err == nil && !found {
		err = NewStorageVersionNotFoundError(name, version)
	}
	return tmpl, err
}

// Save inserts tmpl as MAX(version)+1 of its name in one transaction.
func (s *sqlStore) Save(ctx context.Context, tmpl *StoredTemplate) error {
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

	indexTemplate(tmpl)
	documents, err := encodeDocuments(tmpl)
	if err != nil {
		return newStorageQueryError(ErrMsgEncodeFailed, tmpl.Name, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var stored *StoredTemplate
	err = s.inTx(ctx, &sql.TxOptions{Isolation: s.dialect.isolation}, func(tx *sql.Tx) error {
		var latest int
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s WHERE name = %s", s.table, s.dialect.bind(1)),
			tmpl.Name).Scan(&latest)
		if err != nil {
			return err
		}

		stored = newVersion(tmpl, latest+1, time.Now().UTC().Truncate(time.Microsecond))
		_, err = tx.ExecContext(ctx, s.insertStatement(), s.templateRow(stored, documents)...)
		return err
	})
	if err != nil {
		return newStorageQueryError(ErrMsgQueryFailed, tmpl.Name, err)
	}

	publishVersion(tmpl, stored)
	return nil
}

// insertStatement returns the INSERT for one row in sqlTemplateColumns order
func (s *sqlStore) insertStatement() string {
	columns := strings.Split(sqlTemplateColumns, ", ")
	binds := make([]string, len(columns))
	for i := range binds {
		binds[i] = s.dialect.bind(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, sqlTemplateColumns, strings.Join(binds, ", "))
}

// templateRow returns the insert arguments for stored in sqlTemplateColumns order
func (s *sqlStore) templateRow(stored *StoredTemplate, documents templateDocuments) []any {
	return []any{
		string(stored.ID), stored.Name, stored.Source, stored.Version,
		documents.placeholders, documents.summary, documents.metadata, documents.tags,
		s.dialect.timeArg(stored.CreatedAt), s.dialect.timeArg(stored.UpdatedAt),
	}
}

// inTx runs fn in a transaction and commits when it succeeds
func (s *sqlStore) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes all versions of a template by name.
func (s *sqlStore) Delete(ctx context.Context, name string) error {
	done, err := s.gate.write(ctx)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.table, s.dialect.bind(1)), name)
	if err != nil {
		return newStorageQueryError(ErrMsgQueryFailed, name, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return newStorageQueryError(ErrMsgQueryFailed, name, err)
	}
	if removed == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns templates matching the query. Name prefix and version
// selection run in SQL; tag, kind and key filters and paging run on the
// decoded rows through selectTemplates, as for MemoryStorage.
func (s *sqlStore) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if query == nil {
		query = &TemplateQuery{}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var conditions []string
	var args []any
	if query.NamePrefix != "" {
		args = append(args, escapeLike(query.NamePrefix)+"%")
		conditions = append(conditions, fmt.Sprintf("t.name LIKE %s ESCAPE '\\'", s.dialect.bind(len(args))))
	}
	if !query.IncludeAllVersions {
		conditions = append(conditions,
			fmt.Sprintf("t.version = (SELECT MAX(l.version) FROM %s l WHERE l.name = t.name)", s.table))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	columns := "t." + strings.ReplaceAll(sqlTemplateColumns, ", ", ", t.")

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s t %s", columns, s.table, where), args...)
	if err != nil {
		return nil, newStorageQueryError(ErrMsgQueryFailed, "", err)
	}
	defer rows.Close()

	var candidates []*StoredTemplate
	for rows.Next() {
		tmpl, err := scanStoredTemplate(rows)
		if err != nil {
			return nil, newStorageQueryError(ErrMsgDecodeFailed, "", err)
		}
		candidates = append(candidates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageQueryError(ErrMsgQueryFailed, "", err)
	}

	return selectTemplates(candidates, query), nil
}

// Exists checks if a template with the given name exists.
func (s *sqlStore) Exists(ctx context.Context, name string) (bool, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return false, err
	}
	defer done()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var one int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE name = %s LIMIT 1", s.table, s.dialect.bind(1)),
		name).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, newStorageQueryError(ErrMsgQueryFailed, name, err)
	}
	return true, nil
}

// ListVersions returns all version numbers for a template, newest first.
func (s *sqlStore) ListVersions(ctx context.Context, name string) ([]int, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT version FROM %s WHERE name = %s ORDER BY version DESC", s.table, s.dialect.bind(1)),
		name)
	if err != nil {
		return nil, newStorageQueryError(ErrMsgQueryFailed, name, err)
	}
	defer rows.Close()

	versions := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, newStorageQueryError(ErrMsgQueryFailed, name, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageQueryError(ErrMsgQueryFailed, name, err)
	}
	return versions, nil
}

// Close releases database connections. Closing twice is a no-op.
func (s *sqlStore) Close() error {
	return s.gate.shut(s.db.Close)
}

// sqlMigration is one schema step, applied and recorded in one transaction
type sqlMigration struct {
	version     int
	description string
	statements  []string
}

// migrations returns every schema step for the store's table, in order
func (s *sqlStore) migrations() []sqlMigration {
	t, d := s.table, s.dialect
	steps := []sqlMigration{
		{
			version:     1,
			description: "templates table",
			statements: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
					id           TEXT PRIMARY KEY,
					name         TEXT NOT NULL,
					source       TEXT NOT NULL,
					version      INTEGER NOT NULL,
					placeholders %[2]s NOT NULL DEFAULT '[]',
					metadata     %[2]s NOT NULL DEFAULT '{}',
					tags         %[2]s NOT NULL DEFAULT '[]',
					created_at   %[3]s NOT NULL,
					updated_at   %[3]s NOT NULL,
					UNIQUE (name, version)
				)`, t, d.jsonType, d.timeType),
				fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_name_version ON %[1]s (name, version DESC)`, t),
			},
		},
		{
			version:     2,
			description: "placeholder summary column",
			statements:  []string{fmt.Sprintf(`ALTER TABLE %s ADD COLUMN summary %s`, t, d.jsonType)},
		},
	}
	if d.migrations != nil {
		steps = append(steps, d.migrations(t)...)
	}
	return steps
}

// RunMigrations applies the schema steps not yet recorded in the
// migrations table. Running it again is a no-op.
func (s *sqlStore) RunMigrations(ctx context.Context) error {
	done, err := s.gate.write(ctx)
	if err != nil {
		return err
	}
	defer done()

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  %s NOT NULL
	)`, s.migrationsTable, s.dialect.timeType))
	if err != nil {
		return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
	}

	record := fmt.Sprintf("INSERT INTO %s (version, description, applied_at) VALUES (%s, %s, %s)",
		s.migrationsTable, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3))

	for _, m := range s.migrations() {
		if m.version <= current {
			continue
		}
		err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, record, m.version, m.description, s.dialect.timeArg(time.Now().UTC()))
			return err
		})
		if err != nil {
			return &StorageError{
				Message: ErrMsgMigrationFailed,
				Cause:   fmt.Errorf("migration %d (%s): %w", m.version, m.description, err),
			}
		}
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration, 0 for none.
func (s *sqlStore) CurrentSchemaVersion(ctx context.Context) (int, error) {
	done, err := s.gate.read(ctx)
	if err != nil {
		return 0, err
	}
	defer done()

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return 0, &StorageError{Message: ErrMsgQueryFailed, Cause: err}
	}
	return version, nil
}

func (s *sqlStore) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTable)).Scan(&version)
	if err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanStoredTemplate reads one row in sqlTemplateColumns order
func scanStoredTemplate(row rowScanner) (*StoredTemplate, error) {
	var (
		tmpl      StoredTemplate
		id        string
		documents [4]sql.NullString
		createdAt sqlTime
		updatedAt sqlTime
	)

	err := row.Scan(&id, &tmpl.Name, &tmpl.Source, &tmpl.Version,
		&documents[0], &documents[1], &documents[2], &documents[3], &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tmpl.ID = TemplateID(id)
	tmpl.CreatedAt = createdAt.Time
	tmpl.UpdatedAt = updatedAt.Time

	targets := []struct {
		column string
		into   any
	}{
		{"placeholders", &tmpl.Placeholders},
		{"summary", &tmpl.Summary},
		{"metadata", &tmpl.Metadata},
		{"tags", &tmpl.Tags},
	}
	for i, target := range targets {
		if err := decodeJSONColumn(documents[i], target.into); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", ErrMsgDecodeFailed, target.column, err)
		}
	}
	return &tmpl, nil
}

// templateDocuments holds the JSON-encoded columns of one row
type templateDocuments struct {
	placeholders, summary, metadata, tags string
}

// encodeDocuments serializes the JSON columns of tmpl
func encodeDocuments(tmpl *StoredTemplate) (templateDocuments, error) {
	var docs templateDocuments
	fields := []struct {
		into  *string
		value any
	}{
		{&docs.placeholders, tmpl.Placeholders},
		{&docs.summary, tmpl.Summary},
		{&docs.metadata, tmpl.Metadata},
		{&docs.tags, tmpl.Tags},
	}
	for _, field := range fields {
		encoded, err := json.Marshal(field.value)
		if err != nil {
			return templateDocuments{}, err
		}
		*field.into = string(encoded)
	}
	return docs, nil
}

// decodeJSONColumn unmarshals a nullable JSON column; NULL and "null" leave v untouched
func decodeJSONColumn(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), v)
}

// escapeLike escapes LIKE wildcards so a name prefix matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// sqlTime scans timestamps stored either natively or as RFC 3339 text
type sqlTime struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("%s: unsupported timestamp type %T", ErrMsgDecodeFailed, src)
	}
	return nil
}

func (t *sqlTime) parse(s string) error {
	parsed, err := time.Parse(SQLiteTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
