package fakes

import (
	"context"
	"sync"

	"github.com/dhima/dbhelper/internal/database"
)

// FakeStore stands in for *database.Client where a test needs a specific
// failure. Every statement method returns Err; fetches return Rows.
type FakeStore struct {
	mu sync.Mutex

	Err      error
	PingErr  error
	InsertID int64
	Rows     []database.Row
	Counters database.Stats

	calls []string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls lists the operations invoked so far, e.g. "insert users".
func (f *FakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeStore) Select(_ context.Context, table string, _ ...database.SelectOption) (*database.Result, error) {
	f.record("select " + table)
	return nil, f.Err
}

func (f *FakeStore) Get(database.Shape) ([]database.Row, error) {
	f.record("get")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Rows, nil
}

func (f *FakeStore) Insert(_ context.Context, table string, _ any) (int64, bool, error) {
	f.record("insert " + table)
	if f.Err != nil {
		return 0, true, f.Err
	}
	return f.InsertID, true, nil
}

func (f *FakeStore) Update(_ context.Context, table string, _ any, where string) (*database.Result, bool, error) {
	f.record("update " + table + " where " + where)
	return nil, true, f.Err
}

func (f *FakeStore) Delete(_ context.Context, table, where string) (*database.Result, error) {
	f.record("delete " + table + " where " + where)
	return nil, f.Err
}

func (f *FakeStore) Query(_ context.Context, sqlText string) (*database.Result, error) {
	f.record("query " + sqlText)
	return nil, f.Err
}

func (f *FakeStore) Ping(context.Context) error {
	f.record("ping")
	return f.PingErr
}

func (f *FakeStore) Stats() database.Stats {
	return f.Counters
}
