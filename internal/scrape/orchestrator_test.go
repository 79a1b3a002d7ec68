package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sitechat/sitechat/internal/worker"
)

// stubInvoker returns a canned stdout JSON per source, with optional delay.
func stubInvoker(t *testing.T, responses map[string]string, errs map[string]error, delays map[string]time.Duration) worker.Invoker {
	t.Helper()
	return worker.InvokerFunc(func(ctx context.Context, payload any) (json.RawMessage, error) {
		req, ok := payload.(workerRequest)
		if !ok {
			t.Errorf("unexpected payload type %T", payload)
			return nil, errors.New("bad payload")
		}
		if d, ok := delays[req.Source]; ok {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, &worker.TimeoutError{}
			}
		}
		if err, ok := errs[req.Source]; ok {
			return nil, err
		}
		resp, ok := responses[req.Source]
		if !ok {
			return nil, fmt.Errorf("no canned response for %s", req.Source)
		}
		return json.RawMessage(resp), nil
	})
}

func TestScrapeOutcomeOrderMatchesInput(t *testing.T) {
	sources := []string{"https://a.example", "https://b.example", "https://c.example"}
	inv := stubInvoker(t,
		map[string]string{
			"https://a.example": `{"url":"https://a.example","data":[{"name":"A"}]}`,
			"https://b.example": `{"url":"https://b.example","data":[{"name":"B"}]}`,
			"https://c.example": `{"url":"https://c.example","data":[{"name":"C"}]}`,
		},
		nil,
		map[string]time.Duration{
			// First source finishes last; order must still match input.
			"https://a.example": 80 * time.Millisecond,
			"https://b.example": 40 * time.Millisecond,
		})

	o := NewOrchestrator(inv, time.Minute, nil)
	outcomes, err := o.Scrape(context.Background(), CategoryProducts, sources)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(outcomes) != len(sources) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(sources))
	}
	for i, src := range sources {
		if outcomes[i].Source != src {
			t.Fatalf("outcome %d is %s, want %s", i, outcomes[i].Source, src)
		}
		if !outcomes[i].Success {
			t.Fatalf("outcome %d failed: %s", i, outcomes[i].ErrorMessage)
		}
	}
}

func TestScrapeFiltersBlankSources(t *testing.T) {
	inv := stubInvoker(t, map[string]string{
		"https://a.example": `{"url":"https://a.example","data":[]}`,
	}, nil, nil)
	o := NewOrchestrator(inv, time.Minute, nil)
	outcomes, err := o.Scrape(context.Background(), CategoryFAQ, []string{" ", "https://a.example", ""})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Source != "https://a.example" {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}

func TestScrapeEmptySources(t *testing.T) {
	o := NewOrchestrator(stubInvoker(t, nil, nil, nil), time.Minute, nil)
	if _, err := o.Scrape(context.Background(), CategoryFAQ, []string{"", "  "}); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if _, err := o.Scrape(context.Background(), CategoryFAQ, nil); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestScrapePartialFailureKeepsSiblings(t *testing.T) {
	inv := stubInvoker(t,
		map[string]string{
			"urlA": `{"url":"urlA","data":[{"question":"Q1","answer":"A1"}]}`,
		},
		map[string]error{
			"urlB": &worker.TimeoutError{Timeout: time.Second},
		},
		nil)
	o := NewOrchestrator(inv, time.Minute, nil)
	outcomes, err := o.Scrape(context.Background(), CategoryFAQ, []string{"urlA", "urlB"})
	if err != nil {
		t.Fatalf("partial failure must not fail the batch: %v", err)
	}
	if !outcomes[0].Success || outcomes[1].Success {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if outcomes[1].ErrorMessage == "" {
		t.Fatalf("failed outcome missing error message")
	}

	ds := Aggregate(CategoryFAQ, outcomes)
	items, ok := ds.Value.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected aggregate: %#v", ds.Value)
	}
	item := items[0].(map[string]any)
	if item["question"] != "Q1" || item["answer"] != "A1" {
		t.Fatalf("unexpected item: %v", item)
	}
}

func TestScrapeAllFailed(t *testing.T) {
	inv := stubInvoker(t, nil, map[string]error{
		"urlA": &worker.ExecutionError{ExitCode: 1, Stderr: "boom"},
	}, nil)
	o := NewOrchestrator(inv, time.Minute, nil)
	outcomes, err := o.Scrape(context.Background(), CategoryProducts, []string{"urlA"})
	var allFailed *AllFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllFailedError, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Success {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if len(allFailed.Messages) != 1 {
		t.Fatalf("unexpected messages: %v", allFailed.Messages)
	}
}

func TestScrapeWorkerReportedErrorIsFailure(t *testing.T) {
	// Exit status zero, but the result itself carries an error field.
	inv := stubInvoker(t, map[string]string{
		"urlA": `{"url":"urlA","error":"Failed to fetch content","data":[]}`,
	}, nil, nil)
	o := NewOrchestrator(inv, time.Minute, nil)
	outcomes, err := o.Scrape(context.Background(), CategoryAbout, []string{"urlA"})
	var allFailed *AllFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllFailedError, got %v", err)
	}
	if outcomes[0].Success || outcomes[0].ErrorMessage != "Failed to fetch content" {
		t.Fatalf("unexpected outcome: %+v", outcomes[0])
	}
}

func TestScrapeBatchDeadlineCancelsStragglers(t *testing.T) {
	inv := stubInvoker(t,
		map[string]string{
			"fast": `{"url":"fast","data":[{"title":"T"}]}`,
			"slow": `{"url":"slow","data":[]}`,
		},
		nil,
		map[string]time.Duration{"slow": 5 * time.Second})
	o := NewOrchestrator(inv, 100*time.Millisecond, nil)
	start := time.Now()
	outcomes, err := o.Scrape(context.Background(), CategoryPolicies, []string{"fast", "slow"})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("batch deadline did not cancel straggler")
	}
	if !outcomes[0].Success {
		t.Fatalf("fast source should have succeeded: %+v", outcomes[0])
	}
	if outcomes[1].Success {
		t.Fatalf("slow source should have timed out: %+v", outcomes[1])
	}
}
