package query

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/page"
	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

// Database is the programmatic surface of spec §6: it owns a page source
// and schema catalog snapshot, and dispatches queries through the
// DIRECT/CACHED/JIT execution tiers.
type Database struct {
	src   page.Source
	cfg   *Config
	views *ViewRegistry
	cache *planCache

	mu          sync.RWMutex
	cat         *catalog.Catalog
	overlay     map[string][][]record.ColumnValue // committed in-memory inserted rows, per table
	snapshotTag uuid.UUID

	writeMu sync.Mutex // single global exclusive writer lock (§5(c))
}

// Open opens the SQLite-compatible file at path. readOnly is passed to the
// page source, which then rejects page writes; Begin/Commit/Rollback stage
// rows in an in-memory overlay and are accepted in either mode.
func Open(path string, readOnly bool, opts ...Option) (*Database, error) {
	cfg := DefaultConfig()
	cfg.apply(opts)
	src, err := page.OpenFile(path, cfg.PageCacheSize, readOnly, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return newDatabase(src, cfg)
}

// OpenBytes wraps an in-memory buffer (a loaded snapshot or test fixture)
// as a Database.
func OpenBytes(buf []byte, readOnly bool, opts ...Option) (*Database, error) {
	cfg := DefaultConfig()
	cfg.apply(opts)
	src, err := page.NewMemorySource(buf, readOnly)
	if err != nil {
		return nil, err
	}
	return newDatabase(src, cfg)
}

func newDatabase(src page.Source, cfg *Config) (*Database, error) {
	if cfg.Parser == nil || cfg.DDLParser == nil {
		return nil, sharcerr.New("query.newDatabase", sharcerr.KindSchemaMismatch, nil,
			"reason", "Config.Parser and Config.DDLParser must be supplied (sqlparse.New() satisfies both)")
	}
	cat, err := catalog.Build(context.Background(), src, cfg.DDLParser)
	if err != nil {
		return nil, err
	}

	var rootPages []uint32
	for _, t := range cat.Tables {
		rootPages = append(rootPages, t.RootPage)
	}
	for _, idxs := range cat.Indexes {
		for _, idx := range idxs {
			rootPages = append(rootPages, idx.RootPage)
		}
	}
	if err := page.Prefetch(context.Background(), src, rootPages, cfg.MaxConcurrency); err != nil {
		return nil, err
	}

	views := NewViewRegistry()
	for name, v := range cat.Views {
		views.Register(name, v.Body)
	}
	db := &Database{
		src:         src,
		cfg:         cfg,
		views:       views,
		cache:       newPlanCache(cfg.PlanCacheSize),
		cat:         cat,
		overlay:     make(map[string][][]record.ColumnValue),
		snapshotTag: uuid.New(),
	}
	return db, nil
}

// Close releases the underlying page source.
func (db *Database) Close() error {
	if closer, ok := db.src.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Tables returns the catalog's known table names.
func (db *Database) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.cat.Tables))
	for name := range db.cat.Tables {
		names = append(names, name)
	}
	return names
}

// DataVersion reports the page source's write counter.
func (db *Database) DataVersion() uint64 { return db.src.DataVersion() }

// PageSize reports the underlying file's page size in bytes.
func (db *Database) PageSize() int { return db.src.PageSize() }

func (db *Database) overlayRows(table string) [][]record.ColumnValue {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.overlay[table]
}

// RegisterView adds or replaces a named query, resolvable in a FROM clause
// exactly like a table.
func (db *Database) RegisterView(name, bodySQL string) {
	db.views.Register(name, bodySQL)
}

// UnregisterView removes a view.
func (db *Database) UnregisterView(name string) {
	db.views.Unregister(name)
}

func (db *Database) toParamsView(params map[string]record.ColumnValue) paramsView {
	return paramsView(params)
}

// Execute compiles and runs queryText immediately: the DIRECT tier, which
// does no plan-cache lookup.
func (db *Database) Execute(ctx context.Context, queryText string, params map[string]record.ColumnValue) (Result, error) {
	intent, err := db.compile(queryText)
	if err != nil {
		return Result{}, err
	}
	return runIntent(ctx, db, intent, db.toParamsView(params))
}

func (db *Database) compile(queryText string) (CompiledIntent, error) {
	intent, err := db.cfg.Parser.Parse(queryText)
	if err != nil {
		return CompiledIntent{}, err
	}
	return resolveViews(db.cfg.Parser, db.views, intent, 0)
}

// PreparedStatement is the CACHED tier: a compiled intent kept in the plan
// dictionary, reused across Execute calls with different bound parameters.
type PreparedStatement struct {
	db     *Database
	key    string
	intent CompiledIntent
}

// Prepare compiles queryText once, storing the result in the plan cache
// keyed by its normalized text (spec §4.9, §9 Open Question b). A
// subsequent Prepare of equivalent text (after whitespace collapse and
// case folding) reuses the cached CompiledIntent without re-parsing.
func (db *Database) Prepare(queryText string) (*PreparedStatement, error) {
	key := normalizeCacheKey(queryText, nil, nil)
	if entry, ok := db.cache.get(key); ok {
		return &PreparedStatement{db: db, key: key, intent: entry.intent}, nil
	}
	intent, err := db.compile(queryText)
	if err != nil {
		return nil, err
	}
	db.cache.put(key, cacheEntry{intent: intent, tag: uuid.New()})
	return &PreparedStatement{db: db, key: key, intent: intent}, nil
}

// Execute runs the prepared statement with params bound.
func (p *PreparedStatement) Execute(ctx context.Context, params map[string]record.ColumnValue) (Result, error) {
	return runIntent(ctx, p.db, p.intent, p.db.toParamsView(params))
}

// TableHandle is the JIT tier: a table reference built up programmatically
// via chained Where/OrderBy/Limit calls rather than parsed from SQL text,
// compiled to a CompiledIntent only when Rows is called.
type TableHandle struct {
	db     *Database
	table  string
	filter *predicate.Intent
	order  []OrderBySpec
	limit  *int64
}

// Table opens a JIT handle on name without touching the parser.
func (db *Database) Table(name string) (*TableHandle, error) {
	if _, err := db.cat.Table(name); err != nil {
		return nil, err
	}
	return &TableHandle{db: db, table: name}, nil
}

// Where parses exprText as a standalone predicate expression and ANDs it
// onto the handle's existing filter, returning a new handle (the receiver
// is left unmodified, consistent with the chainable builder style).
func (h *TableHandle) Where(exprText string) (*TableHandle, error) {
	expr, err := h.db.cfg.Parser.ParseExpression(exprText)
	if err != nil {
		return nil, err
	}
	next := *h
	next.filter = andFilters(h.filter, &expr)
	return &next, nil
}

// OrderBy appends one ORDER BY key.
func (h *TableHandle) OrderBy(column string, descending bool) *TableHandle {
	next := *h
	next.order = append(append([]OrderBySpec{}, h.order...), OrderBySpec{ColumnName: column, Descending: descending})
	return &next
}

// Limit bounds the row count returned by Rows.
func (h *TableHandle) Limit(n int64) *TableHandle {
	next := *h
	next.limit = &n
	return &next
}

// Rows compiles and executes the handle's accumulated filter/order/limit.
func (h *TableHandle) Rows(ctx context.Context, params map[string]record.ColumnValue) (Result, error) {
	intent := CompiledIntent{
		From:    FromSpec{TableName: h.table},
		Filter:  h.filter,
		OrderBy: h.order,
		Limit:   h.limit,
	}
	intent, err := resolveViews(h.db.cfg.Parser, h.db.views, intent, 0)
	if err != nil {
		return Result{}, err
	}
	return runIntent(ctx, h.db, intent, h.db.toParamsView(params))
}

// Tx is a write transaction: only INSERT is supported (SPEC_FULL.md D.6).
// Begin acquires the database's single global exclusive writer lock,
// released by Commit or Rollback.
type Tx struct {
	db      *Database
	pending map[string][][]record.ColumnValue
	done    bool
}

// Begin acquires the writer lock and starts a new transaction.
func (db *Database) Begin(ctx context.Context) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, sharcerr.New("query.Begin", sharcerr.KindCanceled, err)
	}
	db.writeMu.Lock()
	return &Tx{db: db, pending: make(map[string][][]record.ColumnValue)}, nil
}

// Insert stages one row for table, keyed by column name; columns absent
// from values are left NULL.
func (tx *Tx) Insert(table string, values map[string]record.ColumnValue) error {
	if tx.done {
		return sharcerr.New("query.Tx.Insert", sharcerr.KindReadOnly, nil, "reason", "transaction already closed")
	}
	t, err := tx.db.cat.Table(table)
	if err != nil {
		return err
	}
	row := make([]record.ColumnValue, len(t.Columns))
	for i := range row {
		row[i] = record.ColumnValue{Kind: record.KindNull}
	}
	for name, v := range values {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return sharcerr.New("query.Tx.Insert", sharcerr.KindUnknownColumn, nil, "column", name)
		}
		row[idx] = v
	}
	tx.pending[table] = append(tx.pending[table], row)
	return nil
}

// Commit publishes every staged row into the database's in-memory overlay
// (SPEC_FULL.md D.6), enforcing unique-index constraints across the
// combined base-table-plus-overlay row set, then mints a fresh snapshot
// tag. No page is written, so the page source's dataVersion is unchanged.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return sharcerr.New("query.Tx.Commit", sharcerr.KindReadOnly, nil, "reason", "transaction already closed")
	}
	defer tx.close()

	for table, rows := range tx.pending {
		if err := tx.db.checkUniqueConstraints(ctx, table, rows); err != nil {
			return err
		}
	}

	tx.db.mu.Lock()
	for table, rows := range tx.pending {
		tx.db.overlay[table] = append(tx.db.overlay[table], rows...)
	}
	tx.db.snapshotTag = uuid.New()
	tx.db.mu.Unlock()
	return nil
}

// Rollback discards every staged row.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.close()
	return nil
}

func (tx *Tx) close() {
	tx.done = true
	tx.pending = nil
	tx.db.writeMu.Unlock()
}

// checkUniqueConstraints verifies newRows against every unique index
// declared on table, comparing against both already-committed rows (base
// table plus overlay) and the other rows in the same batch.
func (db *Database) checkUniqueConstraints(ctx context.Context, table string, newRows [][]record.ColumnValue) error {
	t, err := db.cat.Table(table)
	if err != nil {
		return err
	}
	var uniques []catalog.Index
	for _, idx := range db.cat.IndexesFor(table) {
		if idx.IsUnique {
			uniques = append(uniques, idx)
		}
	}
	if len(uniques) == 0 {
		return nil
	}

	existing, err := scanTable(ctx, db, t, "", nil, nil)
	if err != nil {
		return err
	}

	for _, idx := range uniques {
		seen := make(map[string]bool, len(existing)+len(newRows))
		key := func(row []record.ColumnValue) string {
			var b []byte
			for _, col := range idx.Columns {
				ord := t.ColumnIndex(col.Name)
				if ord < 0 || ord >= len(row) {
					continue
				}
				b = append(b, keyBytes(row[ord])...)
			}
			return string(b)
		}
		for _, row := range existing {
			seen[key(row)] = true
		}
		for _, row := range newRows {
			k := key(row)
			if seen[k] {
				return sharcerr.New("query.checkUniqueConstraints", sharcerr.KindUniqueViolation, nil,
					"index", idx.Name, "table", table)
			}
			seen[k] = true
		}
	}
	return nil
}

func keyBytes(v record.ColumnValue) []byte {
	if v.IsNull() {
		return []byte{0}
	}
	switch v.Kind {
	case record.KindText, record.KindBlob:
		return append([]byte{1}, v.Span...)
	default:
		buf := make([]byte, 9)
		buf[0] = 2
		n := v.Int
		if v.Kind == record.KindFloat64 {
			n = int64(v.Float)
		}
		for i := 1; i < 9; i++ {
			buf[i] = byte(n >> (8 * (i - 1)))
		}
		return buf
	}
}
