package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Startitecture/storm-sub007/dialect"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
)

// Kind classifies statement text by its leading keywords.
type Kind uint8

// Statement kinds.
const (
	KindOther Kind = iota
	KindSelect
	KindExists
	KindDelete
	KindUpdate
	KindMerge
	KindInsert
	numKinds
)

var kindNames = [numKinds]string{"other", "select", "exists", "delete", "update", "merge", "insert"}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// StatementKind returns the kind of a statement compiled by this package.
func StatementKind(query string) Kind {
	q := strings.TrimSpace(query)
	word := func(prefix string) bool {
		return len(q) >= len(prefix) && strings.EqualFold(q[:len(prefix)], prefix)
	}
	switch {
	case word("SELECT"):
		return KindSelect
	case word("IF EXISTS"):
		return KindExists
	case word("DELETE"):
		return KindDelete
	case word("UPDATE"):
		return KindUpdate
	case word("INSERT"):
		return KindInsert
	case word("MERGE"), word("DECLARE @inserted"):
		return KindMerge
	default:
		return KindOther
	}
}

// QueryStats counts the statements run through a StatsDriver.
type QueryStats struct {
	statements  [numKinds]atomic.Int64
	duration    atomic.Int64
	slow        atomic.Int64
	errors      atomic.Int64
	constraints atomic.Int64
	bulkRows    atomic.Int64
}

// Stats returns a snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		Statements:           make(map[Kind]int64, numKinds),
		Duration:             time.Duration(s.duration.Load()),
		Slow:                 s.slow.Load(),
		Errors:               s.errors.Load(),
		ConstraintViolations: s.constraints.Load(),
		BulkRows:             s.bulkRows.Load(),
	}
	for k := range s.statements {
		if n := s.statements[k].Load(); n > 0 {
			snap.Statements[Kind(k)] = n
		}
	}
	return snap
}

// Reset sets every counter to zero.
func (s *QueryStats) Reset() {
	for k := range s.statements {
		s.statements[k].Store(0)
	}
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
	s.constraints.Store(0)
	s.bulkRows.Store(0)
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	// Statements counts statements by kind. Kinds never run are absent.
	Statements map[Kind]int64
	Duration   time.Duration
	Slow       int64
	Errors     int64
	// ConstraintViolations counts the errors classified by
	// sqlgraph.IsConstraintError.
	ConstraintViolations int64
	// BulkRows counts the rows sent in bulk parameters.
	BulkRows int64
}

// Total returns the number of statements of every kind.
func (s StatsSnapshot) Total() int64 {
	var n int64
	for _, c := range s.Statements {
		n += c
	}
	return n
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	n := s.Total()
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

// String returns a one-line summary, kinds in declaration order.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "statements=%d", s.Total())
	for k := Kind(0); k < numKinds; k++ {
		if n, ok := s.Statements[k]; ok {
			fmt.Fprintf(&b, " %s=%d", k, n)
		}
	}
	fmt.Fprintf(&b, " duration=%s avg=%s slow=%d errors=%d constraint_violations=%d bulk_rows=%d",
		s.Duration, s.Avg(), s.Slow, s.Errors, s.ConstraintViolations, s.BulkRows)
	return b.String()
}

// SlowQueryHook is called with every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver counts the statements run through a driver and reports slow
// ones.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	threshold atomic.Int64
	slowHook  SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// It defaults to 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold.Store(int64(d))
	}
}

// WithSlowQueryHook sets the func called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements at Warn level to log, or to the
// default logger when log is nil.
func WithSlowQueryLog(log *slog.Logger) StatsOption {
	if log == nil {
		log = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		log.WarnContext(ctx, "slow statement",
			"kind", StatementKind(query),
			"duration", duration,
			"statement", query,
			"args", len(args),
		)
	})
}

// NewStatsDriver wraps drv with statement statistics.
//
//	drv, err := sql.Open(dialect.SQLServer, dsn)
//	if err != nil {
//		return err
//	}
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(logger))
//	c := client.New(client.Driver(stats))
//	...
//	logger.Info("statement stats", "stats", stats.QueryStats().Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}}
	s.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the counters of the driver.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold changes the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.threshold.Store(int64(threshold))
}

// Query runs a statement returning rows and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err)
	return err
}

// Exec runs a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error) {
	elapsed := time.Since(start)
	argv, _ := args.([]any)
	d.stats.statements[StatementKind(query)].Add(1)
	d.stats.duration.Add(int64(elapsed))
	d.stats.bulkRows.Add(int64(bulkRowCount(argv)))
	if err != nil {
		d.stats.errors.Add(1)
		if sqlgraph.IsConstraintError(err) {
			d.stats.constraints.Add(1)
		}
	}
	if elapsed > d.SlowThreshold() {
		d.stats.slow.Add(1)
		if d.slowHook != nil {
			d.slowHook(ctx, query, argv, elapsed)
		}
	}
}

// Tx begins a transaction whose statements are recorded too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx is a transaction of a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query runs a statement returning rows in the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err)
	return err
}

// Exec runs a statement in the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err)
	return err
}

// DebugDriver logs every statement run through a driver.
type DebugDriver struct {
	dialect.Driver
	log   *slog.Logger
	level slog.Level
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger logs to l instead of the default logger.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		if l != nil {
			d.log = l
		}
	}
}

// DebugWithLevel sets the level statements are logged at. It defaults to
// Info.
func DebugWithLevel(level slog.Level) DebugOption {
	return func(d *DebugDriver) {
		d.level = level
	}
}

// NewDebugDriver wraps drv with statement logging. Bulk parameters are
// logged by row count, not by content.
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, log: slog.Default(), level: slog.LevelInfo}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DebugDriver) statement(ctx context.Context, op, query string, args any, tx bool) {
	argv, _ := args.([]any)
	d.log.Log(ctx, d.level, op,
		"kind", StatementKind(query),
		"statement", query,
		"args", redact(argv),
		"tx", tx,
	)
}

// Query logs and runs a statement returning rows.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.statement(ctx, "query", query, args, false)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and runs a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.statement(ctx, "exec", query, args, false)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx logs and begins a transaction.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.Log(ctx, d.level, "begin")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, driver: d}, nil
}

// DebugTx is a transaction of a DebugDriver.
type DebugTx struct {
	dialect.Tx
	driver *DebugDriver
}

// Query logs and runs a statement returning rows in the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.driver.statement(ctx, "query", query, args, true)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs and runs a statement in the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.driver.statement(ctx, "exec", query, args, true)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.driver.log.Log(context.Background(), tx.driver.level, "commit")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.driver.log.Log(context.Background(), tx.driver.level, "rollback")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// bulkRows returns the bulk rows bound to a statement argument.
func bulkRows(arg any) (BulkRows, bool) {
	if named, ok := arg.(sql.NamedArg); ok {
		arg = named.Value
	}
	b, ok := arg.(BulkRows)
	return b, ok
}

func bulkRowCount(args []any) int {
	var n int
	for _, arg := range args {
		if b, ok := bulkRows(arg); ok {
			n += b.Len()
		}
	}
	return n
}

// redact replaces bulk rows by a summary for logging.
func redact(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		b, ok := bulkRows(arg)
		if !ok {
			out[i] = arg
			continue
		}
		out[i] = fmt.Sprintf("%s(%d rows)", b.TypeName, b.Len())
		if named, ok := arg.(sql.NamedArg); ok {
			out[i] = "@" + named.Name + "=" + out[i].(string)
		}
	}
	return out
}

// OpenWithStats opens a database and wraps its driver with statistics.
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(driverName, source)
	if err != nil {
		return nil, nil, err
	}
	s := NewStatsDriver(drv, opts...)
	return s, s.QueryStats(), nil
}
