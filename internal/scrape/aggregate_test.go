package scrape

import (
	"reflect"
	"testing"
)

func ok(source string, payload any) SourceOutcome {
	return SourceOutcome{Source: source, Success: true, Payload: payload}
}

func failed(source, msg string) SourceOutcome {
	return SourceOutcome{Source: source, ErrorMessage: msg}
}

func TestAggregateSingletonLastWriteWins(t *testing.T) {
	outcomes := []SourceOutcome{
		ok("urlA", map[string]any{"email": "a@old.example", "phone": "111"}),
		ok("urlB", map[string]any{"email": "b@new.example", "address": "1 Main St"}),
	}
	ds := Aggregate(CategoryContact, outcomes)
	got, ok := ds.Value.(map[string]any)
	if !ok {
		t.Fatalf("singleton category must aggregate to an object, got %T", ds.Value)
	}
	want := map[string]any{"email": "b@new.example", "phone": "111", "address": "1 Main St"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAggregateSingletonTakesFirstArrayElement(t *testing.T) {
	outcomes := []SourceOutcome{
		ok("urlA", []any{map[string]any{"companyName": "Acme"}, map[string]any{"companyName": "ignored"}}),
	}
	ds := Aggregate(CategoryAbout, outcomes)
	got := ds.Value.(map[string]any)
	if got["companyName"] != "Acme" {
		t.Fatalf("got %v", got)
	}
}

func TestAggregateSingletonSkipsFailures(t *testing.T) {
	outcomes := []SourceOutcome{
		failed("urlA", "timeout"),
		ok("urlB", map[string]any{"mission": "sell widgets"}),
	}
	ds := Aggregate(CategoryAbout, outcomes)
	got := ds.Value.(map[string]any)
	if len(got) != 1 || got["mission"] != "sell widgets" {
		t.Fatalf("got %v", got)
	}
}

func TestAggregateRepeatingConcatenatesInOrder(t *testing.T) {
	o1 := ok("urlA", []any{map[string]any{"name": "P1"}, map[string]any{"name": "P2"}})
	o2 := ok("urlB", []any{map[string]any{"name": "P3"}})

	both := Aggregate(CategoryProducts, []SourceOutcome{o1, o2}).Value.([]any)
	first := Aggregate(CategoryProducts, []SourceOutcome{o1}).Value.([]any)
	second := Aggregate(CategoryProducts, []SourceOutcome{o2}).Value.([]any)

	// Aggregation is concatenation: aggregate([o1,o2]) == aggregate([o1]) ++ aggregate([o2]).
	if !reflect.DeepEqual(both, append(append([]any{}, first...), second...)) {
		t.Fatalf("aggregate not associative-in-order: %v vs %v ++ %v", both, first, second)
	}
	names := make([]string, 0, len(both))
	for _, item := range both {
		names = append(names, item.(map[string]any)["name"].(string))
	}
	if !reflect.DeepEqual(names, []string{"P1", "P2", "P3"}) {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestAggregateRepeatingWrapsNonArrayPayload(t *testing.T) {
	outcomes := []SourceOutcome{
		ok("urlA", map[string]any{"question": "Q", "answer": "A"}),
	}
	items := Aggregate(CategoryFAQ, outcomes).Value.([]any)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestAggregateRepeatingDropsNullItems(t *testing.T) {
	outcomes := []SourceOutcome{
		ok("urlA", []any{nil, map[string]any{"title": "Returns"}, nil}),
	}
	items := Aggregate(CategoryPolicies, outcomes).Value.([]any)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestAggregateEmptyInputs(t *testing.T) {
	obj := Aggregate(CategoryContact, nil).Value.(map[string]any)
	if len(obj) != 0 {
		t.Fatalf("expected empty object, got %v", obj)
	}
	items := Aggregate(CategoryProducts, nil).Value.([]any)
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %v", items)
	}
}

func TestAggregateUnknownCategoryIsRepeating(t *testing.T) {
	outcomes := []SourceOutcome{ok("urlA", []any{map[string]any{"content": "hello"}})}
	if _, isList := Aggregate(Category("general"), outcomes).Value.([]any); !isList {
		t.Fatalf("unknown categories must aggregate to a list")
	}
}

func TestFieldsForTable(t *testing.T) {
	if got := FieldsFor(CategoryProducts); len(got) != 6 || got[0] != "name" {
		t.Fatalf("products fields: %v", got)
	}
	if got := FieldsFor(CategoryContact); len(got) != 5 || got[0] != "email" {
		t.Fatalf("contact fields: %v", got)
	}
	if got := FieldsFor(Category("something-else")); !reflect.DeepEqual(got, []string{"content"}) {
		t.Fatalf("unknown category fields: %v", got)
	}
}
