package graph

import (
	"context"
	"errors"
	"testing"
)

func TestNodeCounts(t *testing.T) {
	keys := []string{"type", "count"}
	sess := &mockSession{runResult: newMockResult(
		record(keys, "Make", int64(3)),
		record(keys, "VehicleModel", int64(12)),
		record(keys, nil, int64(1)),
	)}
	gs := NewWithOpener(&mockOpener{session: sess})

	counts, err := gs.NodeCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["Make"] != 3 || counts["VehicleModel"] != 12 || len(counts) != 2 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestRelationshipCounts_Error(t *testing.T) {
	sess := &mockSession{runErr: errors.New("fail")}
	gs := NewWithOpener(&mockOpener{session: sess})

	if _, err := gs.RelationshipCounts(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestTopMakes(t *testing.T) {
	keys := []string{"name", "models", "years"}
	sess := &mockSession{runResult: newMockResult(record(keys, "TOYOTA", int64(40), int64(30)))}
	gs := NewWithOpener(&mockOpener{session: sess})

	stats, err := gs.TopMakes(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 1 || stats[0] != (MakeStats{Name: "TOYOTA", Models: 40, Years: 30}) {
		t.Fatalf("stats = %+v", stats)
	}
	if sess.calls[0].params["limit"] != int64(5) {
		t.Errorf("limit = %v", sess.calls[0].params["limit"])
	}
}
