package polls

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/livepoll/backend/internal/models"
	"github.com/livepoll/backend/pkg/apperror"
)

func newTestService() (*Service, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	return NewService(store, pub, nil), store, pub
}

func TestCreatePoll(t *testing.T) {
	svc, _, pub := newTestService()

	p, err := svc.CreatePoll(context.Background(), "  Pick one ", []string{"A", " B "})
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	if p.Question != "Pick one" {
		t.Errorf("Expected trimmed question, got %q", p.Question)
	}
	if !reflect.DeepEqual(p.Options, []string{"A", "B"}) {
		t.Errorf("Unexpected options %v", p.Options)
	}
	if !reflect.DeepEqual(p.Counts, []int{0, 0}) || p.TotalVotes != 0 {
		t.Errorf("Expected zero tallies, got counts %v total %d", p.Counts, p.TotalVotes)
	}
	if p.ID == uuid.Nil || p.CreatedAt.IsZero() {
		t.Error("Expected stored poll to carry id and createdAt")
	}

	events := pub.all()
	if len(events) != 1 || events[0].event != EventPollCreated {
		t.Fatalf("Expected one pollCreated event, got %+v", events)
	}
	if !reflect.DeepEqual(events[0].poll, *p) {
		t.Errorf("Broadcast %+v does not match stored poll %+v", events[0].poll, *p)
	}
}

func TestCreatePollValidation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
	}{
		{"missing question", "", []string{"A", "B"}},
		{"blank question", "   ", []string{"A", "B"}},
		{"no options", "Q", nil},
		{"one option", "Q", []string{"A"}},
		{"blank option", "Q", []string{"A", " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, pub := newTestService()
			_, err := svc.CreatePoll(context.Background(), tt.question, tt.options)
			if apperror.KindOf(err) != apperror.KindValidation {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if store.writeCount() != 0 || len(pub.all()) != 0 {
				t.Error("Rejected poll must not be stored or broadcast")
			}
		})
	}
}

func TestCreatePollStoreFailure(t *testing.T) {
	svc, store, pub := newTestService()
	store.failWrite = errStoreDown

	_, err := svc.CreatePoll(context.Background(), "Q", []string{"A", "B"})
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("Expected internal error, got %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("Expected internal error to wrap the store failure")
	}
	if len(pub.all()) != 0 {
		t.Error("Failed create must not broadcast")
	}
}

func TestListPollsNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	empty, err := svc.ListPolls(ctx)
	if err != nil {
		t.Fatalf("ListPolls returned error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", empty)
	}

	first, _ := svc.CreatePoll(ctx, "first", []string{"A", "B"})
	second, _ := svc.CreatePoll(ctx, "second", []string{"A", "B"})
	third, _ := svc.CreatePoll(ctx, "third", []string{"A", "B"})

	list, err := svc.ListPolls(ctx)
	if err != nil {
		t.Fatalf("ListPolls returned error: %v", err)
	}
	want := []uuid.UUID{third.ID, second.ID, first.ID}
	var got []uuid.UUID
	for _, p := range list {
		got = append(got, p.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
}

func TestCastVoteScenario(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	p, err := svc.CreatePoll(ctx, "Pick one", []string{"A", "B"})
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}

	updated, err := svc.CastVote(ctx, p.ID.String(), 1)
	if err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}
	if !reflect.DeepEqual(updated.Counts, []int{0, 1}) || updated.TotalVotes != 1 {
		t.Errorf("Expected counts [0 1] total 1, got %v total %d", updated.Counts, updated.TotalVotes)
	}

	events := pub.all()
	if len(events) != 2 || events[1].event != EventVoteUpdate {
		t.Fatalf("Expected pollCreated then voteUpdate, got %+v", events)
	}
	if !reflect.DeepEqual(events[1].poll, *updated) {
		t.Errorf("voteUpdate payload %+v differs from returned poll %+v", events[1].poll, *updated)
	}

	_, err = svc.CastVote(ctx, p.ID.String(), 5)
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("Expected validation error for index 5, got %v", err)
	}
	after, _ := svc.GetPoll(ctx, p.ID.String())
	if !reflect.DeepEqual(after.Counts, []int{0, 1}) || after.TotalVotes != 1 {
		t.Errorf("Out-of-range vote mutated poll: %v total %d", after.Counts, after.TotalVotes)
	}
	if len(pub.all()) != 2 {
		t.Error("Rejected vote must not broadcast")
	}
}

func TestCastVoteNegativeIndex(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	p, _ := svc.CreatePoll(ctx, "Q", []string{"A", "B"})
	before := store.writeCount()

	if _, err := svc.CastVote(ctx, p.ID.String(), -1); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if store.writeCount() != before {
		t.Error("Negative index must not write")
	}
}

func TestCastVoteUnknownPoll(t *testing.T) {
	svc, store, pub := newTestService()
	ctx := context.Background()

	for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
		_, err := svc.CastVote(ctx, id, 0)
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Errorf("CastVote(%q): expected not found, got %v", id, err)
		}
	}
	if store.writeCount() != 0 || len(pub.all()) != 0 {
		t.Error("Vote on a missing poll must not write or broadcast")
	}
}

func TestCastVoteStoreFailure(t *testing.T) {
	svc, store, pub := newTestService()
	ctx := context.Background()
	p, _ := svc.CreatePoll(ctx, "Q", []string{"A", "B"})
	store.failWrite = errStoreDown

	_, err := svc.CastVote(ctx, p.ID.String(), 0)
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("Expected internal error, got %v", err)
	}
	if len(pub.all()) != 1 {
		t.Error("Failed vote must not broadcast")
	}
}

func TestConcurrentVotesAreNotLost(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()
	p, _ := svc.CreatePoll(ctx, "Q", []string{"A", "B", "C"})

	const numVotes = 200
	var wg sync.WaitGroup
	errs := make(chan error, numVotes)
	for i := 0; i < numVotes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.CastVote(ctx, p.ID.String(), i%3); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("CastVote failed: %v", err)
	}

	final, err := svc.GetPoll(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("GetPoll returned error: %v", err)
	}
	sum := 0
	for _, c := range final.Counts {
		sum += c
	}
	if final.TotalVotes != numVotes || sum != numVotes {
		t.Errorf("Expected %d votes, got total %d sum %d", numVotes, final.TotalVotes, sum)
	}
	if got := len(pub.all()); got != numVotes+1 {
		t.Errorf("Expected %d broadcasts, got %d", numVotes+1, got)
	}
}

// pointerPublisher keeps the exact payloads it was handed.
type pointerPublisher struct {
	payloads []*models.Poll
}

func (p *pointerPublisher) Publish(_ string, payload interface{}) {
	p.payloads = append(p.payloads, payload.(*models.Poll))
}

func TestPublishedPollIsACopy(t *testing.T) {
	pub := &pointerPublisher{}
	svc := NewService(newMemStore(), pub, nil)
	ctx := context.Background()

	p, err := svc.CreatePoll(ctx, "Q", []string{"A", "B"})
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	updated, err := svc.CastVote(ctx, p.ID.String(), 1)
	if err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}
	if len(pub.payloads) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(pub.payloads))
	}

	updated.Counts[1] = 99
	if pub.payloads[0] == p || pub.payloads[1] == updated {
		t.Error("Expected published polls to be distinct from the returned records")
	}
	if pub.payloads[1].Counts[1] != 1 {
		t.Errorf("Published counts changed with the caller's copy: %v", pub.payloads[1].Counts)
	}
}
