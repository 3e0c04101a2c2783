package wrapped

import "time"

// Version information
const (
	Version = "1.0.0"
)

// Wrapper kind names
const (
	WrapperNameTripleCurly  = "triple_curly"
	WrapperNameDoubleCurly  = "double_curly"
	WrapperNameCurlyPercent = "curly_percent"
	WrapperNameCurlyHash    = "curly_hash"
	WrapperNameDollarCurly  = "dollar_curly"
	WrapperNameCurly        = "curly"
)

// Delimiter strings
const (
	StrTripleCurlyOpen   = "{{{"
	StrTripleCurlyClose  = "}}}"
	StrDoubleCurlyOpen   = "{{"
	StrDoubleCurlyClose  = "}}"
	StrCurlyPercentOpen  = "{%"
	StrCurlyPercentClose = "%}"
	StrCurlyHashOpen     = "{#"
	StrCurlyHashClose    = "#}"
	StrDollarCurlyOpen   = "${"
	StrCurlyOpen         = "{"
	StrCurlyClose        = "}"
)

// Element type constants
const (
	ElementTypeText    ElementType = "TEXT"
	ElementTypeWrapped ElementType = "WRAPPED"
)

// Policy constants
const (
	PolicyLenient Policy = "lenient"
	PolicyStrict  Policy = "strict"
)

// Path separator for dot-path value lookup
const PathSeparator = "."

// Log message constants
const (
	LogMsgScannerCreated   = "scanner created"
	LogMsgScanFailed       = "scan failed"
	LogMsgFormatterCreated = "formatter created"
	LogMsgFormatComplete   = "format complete"
	LogMsgEngineCreated    = "engine created"
	LogMsgTemplateSaved    = "template saved"
	LogMsgTemplateRendered = "template rendered"
	LogMsgTemplateDeleted  = "template deleted"
	LogMsgCacheEvicted     = "cache entry evicted"
	LogMsgCacheStaleLoad   = "cache load overlapped invalidation, result not cached"
	LogMsgMetricsFallback  = "metrics initialization failed, using no-op recorder"
)

// Log field names
const (
	LogFieldPolicy       = "policy"
	LogFieldCatalog      = "catalog_size"
	LogFieldResolvers    = "resolver_count"
	LogFieldResolved     = "resolved"
	LogFieldUnresolved   = "unresolved"
	LogFieldWrapper      = "wrapper"
	LogFieldOffset       = "offset"
	LogFieldTemplateName = "template_name"
	LogFieldVersion      = "version"
	LogFieldPlaceholders = "placeholder_count"
	LogFieldStorage      = "storage"
	LogFieldError        = "error"
)

// Error code constants for categorization
const (
	ErrCodeScan    = "WRAPPED_SCAN"
	ErrCodeConfig  = "WRAPPED_CONFIG"
	ErrCodeStorage = "WRAPPED_STORAGE"
)

// Error message constants
const (
	ErrMsgUnterminatedWrapper = "unterminated wrapper"
	ErrMsgEmptyCatalog        = "catalog must contain at least one delimiter"
	ErrMsgEmptyWrapperKind    = "delimiter kind cannot be empty"
	ErrMsgEmptyPrefix         = "delimiter prefix cannot be empty"
	ErrMsgEmptySuffix         = "delimiter suffix cannot be empty"
	ErrMsgDuplicateKind       = "delimiter kind registered twice"
	ErrMsgInvalidPolicy       = "invalid scan policy"
	ErrMsgTemplateNotFound    = "template not found"
	ErrMsgNoStorage           = "engine has no template storage"
)

// Metadata key constants
const (
	MetaKeyCondition    = "condition"
	MetaKeyWrapper      = "wrapper"
	MetaKeyOffset       = "offset"
	MetaKeyLine         = "line"
	MetaKeyColumn       = "column"
	MetaKeyPolicy       = "policy"
	MetaKeyTemplateName = "template_name"
	MetaKeyTemplate     = "template"
)

// Condition values stored under MetaKeyCondition
const (
	ConditionUnterminatedWrapper = "unterminated_wrapper"
)

// Storage driver names
const (
	StorageDriverNameMemory   = "memory"
	StorageDriverNameSQLite   = "sqlite"
	StorageDriverNamePostgres = "postgres"
)

// Storage error message constants
const (
	ErrMsgNilStorageDriver         = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered  = "storage driver already registered"
	ErrMsgStorageDriverNotFound    = "storage driver not found"
	ErrMsgStorageClosed            = "storage is closed"
	ErrMsgVersionNotFound          = "template version not found"
	ErrMsgInvalidTemplateName      = "template name cannot be empty"
	ErrMsgSQLiteOpenFailed         = "failed to open sqlite database"
	ErrMsgPostgresEmptyConnString  = "postgres connection string cannot be empty"
	ErrMsgPostgresConnectionFailed = "failed to connect to postgres"
	ErrMsgMigrationFailed          = "storage migration failed"
	ErrMsgQueryFailed              = "storage query failed"
	ErrMsgEncodeFailed             = "failed to encode template fields"
	ErrMsgDecodeFailed             = "failed to decode template fields"
)

// Template ID prefix
const TemplateIDPrefix = "tmpl_"

// Storage operation names for metrics
const (
	StorageOpGet    = "get"
	StorageOpSave   = "save"
	StorageOpDelete = "delete"
	StorageOpList   = "list"
)

// SQLite defaults
const (
	SQLiteDriverName          = "sqlite"
	SQLiteMemoryDSN           = ":memory:"
	SQLiteTableName           = "wrapped_templates"
	SQLiteMigrationsTableName = "wrapped_schema_migrations"
	SQLitePragmaWAL           = "PRAGMA journal_mode=WAL"
	SQLiteTimeLayout          = time.RFC3339Nano
	SQLiteMaxOpenConn         = 1
)

// Postgres defaults
const (
	PostgresDriverName             = "postgres"
	PostgresTablePrefix            = "wrapped_"
	PostgresTemplatesTable         = "templates"
	PostgresMigrationsTable        = "schema_migrations"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// Cache defaults
const (
	CacheDefaultTTL              = 5 * time.Minute
	CacheDefaultMaxEntries       = 1000
	CacheDefaultNegativeCacheTTL = 30 * time.Second
)

// Metric names
const (
	MeterName                  = "wrapped"
	MetricScanCount            = "wrapped.scan.count"
	MetricScanLatency          = "wrapped.scan.latency_ms"
	MetricScanErrors           = "wrapped.scan.errors"
	MetricPlaceholders         = "wrapped.placeholders"
	MetricSubstitutionCount    = "wrapped.substitution.count"
	MetricUnresolved           = "wrapped.substitution.unresolved"
	MetricStorageOps           = "wrapped.storage.ops"
	MetricAttrOperation        = "operation"
	MetricAttrSuccess          = "success"
	MetricUnitMilliseconds     = "ms"
	MetricDescScanCount        = "Number of scans"
	MetricDescScanLatency      = "Scan latency in milliseconds"
	MetricDescScanErrors       = "Number of scans that failed under strict policy"
	MetricDescPlaceholders     = "Placeholders found per scan"
	MetricDescSubstitution     = "Number of substitutions"
	MetricDescUnresolved       = "Placeholders left unresolved per substitution"
	MetricDescStorageOps       = "Number of template storage operations"
)
