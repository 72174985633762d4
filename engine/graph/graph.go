package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult iterates over query records.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner runs a single Cypher statement.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is the subset of a neo4j session the store needs.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// SessionOpener opens sessions. Tests swap in a fake.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// GraphStore writes and queries the vehicle catalog graph.
type GraphStore struct {
	opener SessionOpener
}

// New creates a GraphStore backed by a neo4j driver.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return NewWithOpener(driverOpener{driver: driver})
}

// NewWithOpener creates a GraphStore with a custom session opener.
func NewWithOpener(o SessionOpener) *GraphStore {
	return &GraphStore{opener: o}
}

type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (d driverOpener) OpenSession(ctx context.Context) CypherSession {
	return &driverSession{sess: d.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type driverSession struct {
	sess neo4j.SessionWithContext
}

func (s *driverSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return s.sess.Run(ctx, cypher, params)
}

func (s *driverSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(txRunner{tx: tx})
	})
}

func (s *driverSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

type txRunner struct {
	tx neo4j.ManagedTransaction
}

func (t txRunner) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return t.tx.Run(ctx, cypher, params)
}
