package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"rent_bot/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	created, err := s.Subscribe(ctx, 100, model.DefaultCriteria())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !created {
		t.Fatal("expected first subscribe to create the subscriber")
	}

	// A custom criteria record must survive a repeated /start.
	custom := model.Criteria{City: "львів", MaxPrice: 15000}
	if err := s.SaveCriteria(ctx, 100, custom); err != nil {
		t.Fatalf("save criteria: %v", err)
	}

	created, err = s.Subscribe(ctx, 100, model.DefaultCriteria())
	if err != nil {
		t.Fatalf("subscribe again: %v", err)
	}
	if created {
		t.Error("expected repeated subscribe to report existing subscriber")
	}

	got, err := s.GetCriteria(ctx, 100)
	if err != nil {
		t.Fatalf("get criteria: %v", err)
	}
	if diff := cmp.Diff(custom, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("criteria mismatch (-want +got):\n%s", diff)
	}

	ok, err := s.IsSubscribed(ctx, 100)
	if err != nil {
		t.Fatalf("is subscribed: %v", err)
	}
	if !ok {
		t.Error("expected chat 100 to be subscribed")
	}
}

func TestListSubscribersOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, id := range []int64{30, 10, 20} {
		if _, err := s.Subscribe(ctx, id, model.DefaultCriteria()); err != nil {
			t.Fatalf("subscribe %d: %v", id, err)
		}
	}

	subs, err := s.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []int64
	for _, sub := range subs {
		got = append(got, sub.ChatID)
	}
	if diff := cmp.Diff([]int64{30, 10, 20}, got); diff != "" {
		t.Errorf("subscriber order mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveSubscribers(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, id := range []int64{1, 2, 3} {
		if _, err := s.Subscribe(ctx, id, model.DefaultCriteria()); err != nil {
			t.Fatalf("subscribe %d: %v", id, err)
		}
	}

	if err := s.RemoveSubscribers(ctx, 1, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}

	subs, err := s.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].ChatID != 2 {
		t.Fatalf("expected only chat 2 to remain, got %+v", subs)
	}

	if _, err := s.GetCriteria(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for removed criteria, got %v", err)
	}
	if err := s.RemoveSubscribers(ctx); err != nil {
		t.Errorf("empty remove should be a no-op, got %v", err)
	}
}

func TestSaveCriteriaReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	if _, err := s.Subscribe(ctx, 7, model.DefaultCriteria()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := model.Criteria{
		City:        "київ",
		District:    "печерський",
		MinPrice:    8000,
		Keywords:    []string{"балкон", "ремонт"},
		PetsAllowed: []model.Pet{model.PetCat, model.PetDog},
	}
	if err := s.SaveCriteria(ctx, 7, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := model.Criteria{City: "одеса", MaxFloor: 5}
	if err := s.SaveCriteria(ctx, 7, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetCriteria(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(second, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("criteria mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveCriteriaRequiresSubscriber(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	if _, err := s.Subscribe(ctx, 7, model.DefaultCriteria()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.RemoveSubscribers(ctx, 7); err != nil {
		t.Fatalf("remove: %v", err)
	}

	tests := []struct {
		name   string
		chatID int64
	}{
		{name: "removed subscriber", chatID: 7},
		{name: "never subscribed", chatID: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SaveCriteria(ctx, tt.chatID, model.Criteria{City: "львів"})
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("save: err = %v, want ErrNotFound", err)
			}
			if _, err := s.GetCriteria(ctx, tt.chatID); !errors.Is(err, ErrNotFound) {
				t.Errorf("get: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGetCriteriaNotFound(t *testing.T) {
	s := newTestDB(t)
	if _, err := s.GetCriteria(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSeenListings(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ids := []string{
		"https://www.olx.ua/d/uk/obyavlenie/a-IDa1.html",
		"https://www.olx.ua/d/uk/obyavlenie/b-IDb2.html",
	}
	if err := s.MarkSeen(ctx, ids...); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// Marking twice is idempotent.
	if err := s.MarkSeen(ctx, ids[0]); err != nil {
		t.Fatalf("mark again: %v", err)
	}

	tests := []struct {
		id   string
		want bool
	}{
		{id: ids[0], want: true},
		{id: ids[1], want: true},
		{id: "https://www.olx.ua/d/uk/obyavlenie/c-IDc3.html", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := s.IsSeen(ctx, tt.id)
			if err != nil {
				t.Fatalf("is seen: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsSeen mismatch (-want +got):\n%s", diff)
			}
		})
	}

	all, err := s.ListSeen(ctx)
	if err != nil {
		t.Fatalf("list seen: %v", err)
	}
	if diff := cmp.Diff(ids, all, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("ListSeen mismatch (-want +got):\n%s", diff)
	}
}
