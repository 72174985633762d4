package graph

import (
	"context"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type mockResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func newMockResult(recs ...*neo4j.Record) *mockResult {
	return &mockResult{records: recs, idx: -1}
}

func (r *mockResult) Next(context.Context) bool {
	r.idx++
	return r.idx < len(r.records)
}

func (r *mockResult) Record() *neo4j.Record { return r.records[r.idx] }
func (r *mockResult) Err() error            { return r.err }

type call struct {
	cypher string
	params map[string]any
}

type mockSession struct {
	mu        sync.Mutex
	runResult CypherResult
	runErr    error
	// failAt makes the nth Run call (1-based) fail with runErr.
	failAt int
	calls  []call
	closed bool
}

func (s *mockSession) Run(_ context.Context, cypher string, params map[string]any) (CypherResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{cypher: cypher, params: params})
	if s.runErr != nil && (s.failAt == 0 || s.failAt == len(s.calls)) {
		return nil, s.runErr
	}
	if s.runResult == nil {
		return newMockResult(), nil
	}
	return s.runResult, nil
}

func (s *mockSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return work(s)
}

func (s *mockSession) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type mockOpener struct {
	session *mockSession
}

func (o *mockOpener) OpenSession(context.Context) CypherSession { return o.session }

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}
