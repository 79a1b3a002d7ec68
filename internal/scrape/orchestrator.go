package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sitechat/sitechat/internal/worker"
)

// ErrNoSources is returned when a scrape request carries no usable source
// URLs after blank entries are filtered out.
var ErrNoSources = errors.New("no source URLs provided")

// AllFailedError signals that every source in a batch failed. The outcome
// list is still returned alongside it so callers can inspect per-source
// messages.
type AllFailedError struct {
	Messages []string
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("failed to scrape any data: %s", strings.Join(e.Messages, "; "))
}

// SourceOutcome is the result of scraping one source. On success Payload
// holds the worker's extracted data (possibly an empty array or object); on
// failure only ErrorMessage is set.
type SourceOutcome struct {
	Source       string
	Success      bool
	Payload      any
	ErrorMessage string
}

// workerRequest is the invocation payload for one source.
type workerRequest struct {
	Source   string   `json:"source"`
	Fields   []string `json:"fields"`
	Category Category `json:"category"`
}

// workerResult is the scrape worker's stdout contract. The worker reports
// extraction failures inside its result rather than via exit status.
type workerResult struct {
	URL   string `json:"url"`
	Data  any    `json:"data"`
	Error string `json:"error"`
}

// Orchestrator fans a category scrape out to one worker invocation per
// source. It is stateless per call.
type Orchestrator struct {
	invoker      worker.Invoker
	batchTimeout time.Duration
	logger       *log.Logger
}

func NewOrchestrator(inv worker.Invoker, batchTimeout time.Duration, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(os.Stdout, "[SCRAPE] ", log.LstdFlags)
	}
	return &Orchestrator{invoker: inv, batchTimeout: batchTimeout, logger: logger}
}

// Scrape dispatches one invocation per source concurrently and joins all of
// them. Outcomes come back in input order regardless of completion order. A
// failing source never cancels its siblings; the batch deadline cancels
// stragglers, which surface as failed outcomes rather than a batch error.
// When every source fails, the outcome list is returned together with
// *AllFailedError so the caller can short-circuit before aggregation.
func (o *Orchestrator) Scrape(ctx context.Context, category Category, sources []string) ([]SourceOutcome, error) {
	trimmed := make([]string, 0, len(sources))
	for _, s := range sources {
		if t := strings.TrimSpace(s); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return nil, ErrNoSources
	}

	if o.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.batchTimeout)
		defer cancel()
	}

	fields := FieldsFor(category)
	outcomes := make([]SourceOutcome, len(trimmed))
	var wg sync.WaitGroup
	for i, src := range trimmed {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			outcomes[i] = o.scrapeOne(ctx, category, fields, src)
		}(i, src)
	}
	wg.Wait()

	failures := make([]string, 0, len(outcomes))
	for _, oc := range outcomes {
		if !oc.Success {
			failures = append(failures, oc.ErrorMessage)
		}
	}
	if len(failures) == len(outcomes) {
		return outcomes, &AllFailedError{Messages: failures}
	}
	return outcomes, nil
}

func (o *Orchestrator) scrapeOne(ctx context.Context, category Category, fields []string, src string) SourceOutcome {
	raw, err := o.invoker.Invoke(ctx, workerRequest{Source: src, Fields: fields, Category: category})
	if err != nil {
		o.logger.Printf("scrape %s: %v", src, err)
		return SourceOutcome{Source: src, ErrorMessage: err.Error()}
	}

	var result workerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return SourceOutcome{Source: src, ErrorMessage: fmt.Sprintf("decode worker result: %v", err)}
	}
	if result.Error != "" {
		o.logger.Printf("scrape %s: worker reported: %s", src, result.Error)
		return SourceOutcome{Source: src, ErrorMessage: result.Error}
	}
	return SourceOutcome{Source: src, Success: true, Payload: result.Data}
}
