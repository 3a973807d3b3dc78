package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/llm"
)

type fakeSource struct {
	papers []domain.Paper
	err    error

	mu            sync.Mutex
	calls         int
	gotQuery      string
	gotMaxResults int
}

func (f *fakeSource) Search(_ context.Context, query string, maxResults int) ([]domain.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotQuery = query
	f.gotMaxResults = maxResults
	return f.papers, f.err
}

// fakeCompleter answers by operation. Unset operations return "ok".
type fakeCompleter struct {
	mu      sync.Mutex
	answers map[string]func(ctx context.Context, prompt string) (string, error)
	calls   map[string]int
	prompts map[string][]string
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{
		answers: map[string]func(context.Context, string) (string, error){},
		calls:   map[string]int{},
		prompts: map[string][]string{},
	}
}

func (f *fakeCompleter) on(op string, fn func(ctx context.Context, prompt string) (string, error)) *fakeCompleter {
	f.answers[op] = fn
	return f
}

func (f *fakeCompleter) reply(op, text string) *fakeCompleter {
	return f.on(op, func(context.Context, string) (string, error) { return text, nil })
}

func (f *fakeCompleter) fail(op string, err error) *fakeCompleter {
	return f.on(op, func(context.Context, string) (string, error) { return "", err })
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	f.mu.Lock()
	f.calls[opts.Operation]++
	f.prompts[opts.Operation] = append(f.prompts[opts.Operation], prompt)
	fn := f.answers[opts.Operation]
	f.mu.Unlock()

	if fn == nil {
		return "ok", nil
	}
	return fn(ctx, prompt)
}

func (f *fakeCompleter) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCompleter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type savedCall struct {
	owner   domain.UserID
	title   string
	content string
	papers  []domain.Paper
	kind    domain.RecordType
}

type fakeStore struct {
	err   error
	saved []savedCall
}

func (f *fakeStore) SaveReport(_ context.Context, owner domain.UserID, title, content string) (domain.StoredRecord, error) {
	f.saved = append(f.saved, savedCall{owner: owner, title: title, content: content, kind: domain.RecordTypeReport})
	if f.err != nil {
		return domain.StoredRecord{}, f.err
	}
	return domain.StoredRecord{
		ID: uuid.New(), UserID: owner, Title: title, Content: content,
		Type: domain.RecordTypeReport, CreatedAt: time.Now(),
	}, nil
}

func (f *fakeStore) SaveSearch(_ context.Context, owner domain.UserID, title, summary string, papers []domain.Paper) (domain.StoredRecord, error) {
	f.saved = append(f.saved, savedCall{owner: owner, title: title, content: summary, papers: papers, kind: domain.RecordTypeSearch})
	if f.err != nil {
		return domain.StoredRecord{}, f.err
	}
	return domain.StoredRecord{
		ID: uuid.New(), UserID: owner, Title: title, Content: summary, Papers: papers,
		Type: domain.RecordTypeSearch, CreatedAt: time.Now(),
	}, nil
}

func testDeps(src *fakeSource, c *fakeCompleter, store *fakeStore) Deps {
	return Deps{
		Source:    src,
		Completer: c,
		Store:     store,
		Logger:    zerolog.Nop(),
	}
}

var errProviderDown = domain.NewUpstreamError(domain.ProviderCompletion, 503, "overloaded", errors.New("503"))
