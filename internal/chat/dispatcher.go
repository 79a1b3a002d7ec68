package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sitechat/sitechat/internal/worker"
)

// FallbackText is the fixed user-facing reply when answering fails for any
// reason. The underlying error is logged, never shown.
const FallbackText = "I'm sorry, I encountered an error while processing your request."

// ErrInvalidQuery is returned for an empty query or missing dataset, before
// any worker invocation.
var ErrInvalidQuery = errors.New("missing query or website data")

// ErrUnexpectedShape is returned when the worker result is valid JSON but
// carries neither a response nor an error field.
var ErrUnexpectedShape = errors.New("unexpected response format from worker")

// WorkerError carries an error the worker reported inside its result.
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string { return e.Message }

// Dispatcher routes a natural-language query against a stored dataset to the
// answering worker. It is stateless per call.
type Dispatcher struct {
	invoker worker.Invoker
	logger  *log.Logger
}

func NewDispatcher(inv worker.Invoker, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(os.Stdout, "[CHAT] ", log.LstdFlags)
	}
	return &Dispatcher{invoker: inv, logger: logger}
}

type workerQuery struct {
	Query       string         `json:"query"`
	WebsiteData map[string]any `json:"websiteData"`
}

type workerAnswer struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Ask invokes the answering worker once with the query and dataset and maps
// its result to an answer string. Worker-boundary failures pass through
// untouched; callers turn any error into the fixed fallback reply.
func (d *Dispatcher) Ask(ctx context.Context, dataset map[string]any, query string) (string, error) {
	if strings.TrimSpace(query) == "" || dataset == nil {
		return "", ErrInvalidQuery
	}

	raw, err := d.invoker.Invoke(ctx, workerQuery{Query: query, WebsiteData: dataset})
	if err != nil {
		d.logger.Printf("ask: %v", err)
		return "", err
	}

	var answer workerAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return "", fmt.Errorf("decode worker answer: %w", err)
	}
	switch {
	case answer.Error != "":
		d.logger.Printf("ask: worker reported: %s", answer.Error)
		return "", &WorkerError{Message: answer.Error}
	case answer.Response != "":
		return answer.Response, nil
	default:
		return "", ErrUnexpectedShape
	}
}
