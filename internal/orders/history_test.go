package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// seedHistory writes n entries with strictly increasing timestamps directly
// into the history table.
func seedHistory(t *testing.T, s *Store, orderID string, n int) []Entry {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		status := statusOrder[i%len(statusOrder)]
		e := NewEntry(orderID, status, fmt.Sprintf("actor-%d", i), "admin", base.Add(time.Duration(i)*time.Millisecond))
		item, err := attributevalue.MarshalMap(e)
		if err != nil {
			t.Fatalf("marshal entry: %v", err)
		}
		if _, err := s.client.PutItem(context.Background(), &dyn.PutItemInput{
			TableName: &s.tables.StatusHistory,
			Item:      item,
		}); err != nil {
			t.Fatalf("put entry: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func collect(t *testing.T, s *Store, orderID string) []Entry {
	t.Helper()
	var out []Entry
	for e, err := range s.History(context.Background(), orderID) {
		if err != nil {
			t.Fatalf("history iteration: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestHistory_AscendingAcrossPages(t *testing.T) {
	s, _ := newTestStore()
	// more than two Query pages
	want := seedHistory(t, s, "order-1", historyPageSize*2+7)

	got := collect(t, s, "order-1")
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range got {
		if got[i].EntrySK != want[i].EntrySK {
			t.Fatalf("position %d out of order: %s vs %s", i, got[i].EntrySK, want[i].EntrySK)
		}
	}
}

func TestHistory_Restartable(t *testing.T) {
	s, _ := newTestStore()
	seedHistory(t, s, "order-1", 5)

	seq := s.History(context.Background(), "order-1")

	first := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("first pass: %v", err)
		}
		first++
	}
	second := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("second pass: %v", err)
		}
		second++
	}
	if first != 5 || second != 5 {
		t.Fatalf("expected both passes to yield 5 entries, got %d and %d", first, second)
	}
}

func TestHistory_EarlyBreak(t *testing.T) {
	s, _ := newTestStore()
	seedHistory(t, s, "order-1", 10)

	count := 0
	for _, err := range s.History(context.Background(), "order-1") {
		if err != nil {
			t.Fatalf("iteration: %v", err)
		}
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Fatalf("expected to stop after 3 entries, got %d", count)
	}
}

func TestLastEntry(t *testing.T) {
	s, _ := newTestStore()

	last, err := s.LastEntry(context.Background(), "order-1")
	if err != nil || last != nil {
		t.Fatalf("expected (nil, nil) for empty history, got %v %v", last, err)
	}

	want := seedHistory(t, s, "order-1", 8)
	last, err = s.LastEntry(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("LastEntry: %v", err)
	}
	if last == nil || last.EntrySK != want[len(want)-1].EntrySK {
		t.Fatalf("expected newest entry %s, got %+v", want[len(want)-1].EntrySK, last)
	}
}
