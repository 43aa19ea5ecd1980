// Package store holds the transactional read/write primitives every higher component
// uses: create, find, query, update, delete and transaction, on top of a GORM handle.
//
// Writes are serialized: at most one transaction runs at a time, so a read-modify-write
// inside a transaction (e.g. patching a hole and recomputing its round's totals) is never
// interleaved with another writer. Reads outside a transaction run concurrently and only
// ever see committed data. Transactions nest by flattening into the outermost one.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

type txState struct {
	tx      *gorm.DB
	changes Changes
}

// Changes summarises what a committed transaction did that observers care about.
type Changes struct {
	HoleRounds    []string // rounds whose holes were inserted, updated or deleted
	DeletedRounds []string // rounds removed by the transaction
}

// Empty reports whether there is nothing to announce.
func (c Changes) Empty() bool {
	return len(c.HoleRounds) == 0 && len(c.DeletedRounds) == 0
}

// CommitListener is called after a transaction commits, still inside the store's write
// lock, so consecutive listeners observe commits in order. Listeners must not start
// transactions of their own.
type CommitListener func(ctx context.Context, c Changes)

// Store wraps the database handle.
type Store struct {
	db *gorm.DB

	mu        sync.Mutex // serializes writers
	listeners []CommitListener
}

// New returns a Store over db. The schema is expected to be migrated already.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OnCommit registers l to run after every committed transaction that reported changes.
func (s *Store) OnCommit(l CommitListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Conn returns the handle to run queries on: the open transaction when ctx carries one,
// the plain database otherwise.
func (s *Store) Conn(ctx context.Context) *gorm.DB {
	if st := stateFrom(ctx); st != nil {
		return st.tx
	}
	return s.db.WithContext(ctx)
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	return stateFrom(ctx) != nil
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// Transaction runs fn atomically. Every write fn performs through the ctx it is given
// commits together or not at all. Called with a ctx that already carries a transaction,
// fn simply joins it.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := &txState{}
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		fnErr = fn(context.WithValue(ctx, txKey{}, state))
		return fnErr
	})
	if fnErr != nil {
		// Already rolled back; the caller's error travels unchanged.
		return fnErr
	}
	if err != nil {
		return Classify(err)
	}

	if !state.changes.Empty() {
		for _, l := range s.listeners {
			l(ctx, state.changes)
		}
	}
	return nil
}

// Exclusive runs fn while holding the write lock, without opening a transaction.
// Observers use it to take a snapshot that no commit can slip in front of.
func (s *Store) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

// TouchHoles records that the holes of roundID changed in the current transaction.
// Outside a transaction it does nothing.
func (s *Store) TouchHoles(ctx context.Context, roundID string) {
	if st := stateFrom(ctx); st != nil && !slices.Contains(st.changes.HoleRounds, roundID) {
		st.changes.HoleRounds = append(st.changes.HoleRounds, roundID)
	}
}

// RoundDeleted records that roundID was removed in the current transaction.
func (s *Store) RoundDeleted(ctx context.Context, roundID string) {
	if st := stateFrom(ctx); st != nil && !slices.Contains(st.changes.DeletedRounds, roundID) {
		st.changes.DeletedRounds = append(st.changes.DeletedRounds, roundID)
	}
}

func (s *Store) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		return Classify(fn(s.Conn(ctx)))
	})
}

// Filter is an equality predicate on a column. A nil Value matches NULL.
type Filter struct {
	Field string
	Value any
}

// Eq builds a Filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Order sorts by a column.
type Order struct {
	Field string
	Desc  bool
}

// Asc and Desc build an Order.
func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Q describes a query: equality filters, sort keys applied in sequence, and
// associations to preload.
type Q struct {
	Where   []Filter
	OrderBy []Order
	Preload []string
}

func apply(db *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		db = db.Where(clause.Eq{Column: clause.Column{Name: f.Field}, Value: f.Value})
	}
	return db
}

// Create builds a new T, lets init populate it, and inserts it. The id is assigned by
// the model's BeforeCreate hook.
func Create[T any](ctx context.Context, s *Store, init func(*T)) (*T, error) {
	v := new(T)
	if init != nil {
		init(v)
	}
	if err := Insert(ctx, s, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Insert writes already-populated rows (a pointer to a model or to a slice of them).
// Associations are never written implicitly.
func Insert(ctx context.Context, s *Store, value any) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(value).Error
	})
}

// Find loads the T whose primary key is id.
func Find[T any](ctx context.Context, s *Store, id string, preload ...string) (*T, error) {
	db := s.Conn(ctx)
	for _, p := range preload {
		db = db.Preload(p)
	}
	v := new(T)
	if err := db.Where("id = ?", id).Take(v).Error; err != nil {
		return nil, Classify(fmt.Errorf("%T %s: %w", v, id, err))
	}
	return v, nil
}

// Query returns every T matching q. The result is never nil.
func Query[T any](ctx context.Context, s *Store, q Q) ([]T, error) {
	db := apply(s.Conn(ctx).Model(new(T)), q.Where)
	for _, o := range q.OrderBy {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
	}
	for _, p := range q.Preload {
		db = db.Preload(p)
	}
	out := make([]T, 0)
	if err := db.Find(&out).Error; err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// Count returns how many T match filters.
func Count[T any](ctx context.Context, s *Store, filters ...Filter) (int64, error) {
	var n int64
	if err := apply(s.Conn(ctx).Model(new(T)), filters).Count(&n).Error; err != nil {
		return 0, Classify(err)
	}
	return n, nil
}

// Update sets values on every T matching filters and returns the number of rows changed.
// Values are column names; zero values are written as given.
func Update[T any](ctx context.Context, s *Store, filters []Filter, values map[string]any) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: update without filters", ErrIntegrityViolation)
	}
	var n int64
	err := s.write(ctx, func(tx *gorm.DB) error {
		res := apply(tx.Model(new(T)), filters).Updates(values)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// Delete removes the T whose primary key is id. Once deleted the id never resolves again.
func Delete[T any](ctx context.Context, s *Store, id string) error {
	n, err := DeleteWhere[T](ctx, s, Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %T %s", ErrNotFound, new(T), id)
	}
	return nil
}

// DeleteWhere removes every T matching filters and returns how many rows went.
func DeleteWhere[T any](ctx context.Context, s *Store, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: delete without filters", ErrIntegrityViolation)
	}
	var n int64
	err := s.write(ctx, func(tx *gorm.DB) error {
		res := apply(tx, filters).Delete(new(T))
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Classify(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return nil
}
