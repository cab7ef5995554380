package rewriting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/generative-proxy/internal/llm"
	"github.com/jonathan/generative-proxy/internal/types"
)

type call struct {
	systemPrompt string
	payload      string
	maxTokens    int
}

type fakeProvider struct {
	mu    sync.Mutex
	calls []call
	reply func(ctx context.Context, c call) (string, error)
}

func (f *fakeProvider) Generate(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error) {
	c := call{systemPrompt: systemPrompt, payload: payload, maxTokens: maxTokens}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return f.reply(ctx, c)
}

func (f *fakeProvider) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func replying(raw string) *fakeProvider {
	return &fakeProvider{reply: func(context.Context, call) (string, error) { return raw, nil }}
}

func failing(err error) *fakeProvider {
	return &fakeProvider{reply: func(context.Context, call) (string, error) { return "", err }}
}

type recordingObserver struct {
	attempts  []string
	fragments []int
}

func (o *recordingObserver) ObserveAttempt(provider, outcome string, _ time.Duration) {
	o.attempts = append(o.attempts, provider+"="+outcome)
}

func (o *recordingObserver) ObserveFragments(n int) {
	o.fragments = append(o.fragments, n)
}

var pirate = types.Personality{ID: "funny-pirate", Name: "Funny Pirate", Prompt: "Arr."}

func TestRewriteBatch_FirstProviderWins(t *testing.T) {
	primary := replying(`["Ahoy, world!"]`)
	secondary := replying(`["unused"]`)
	obs := &recordingObserver{}
	r := NewRewriter(llm.NewChain(
		llm.Backend{Name: "Primary", Model: "m1", Provider: primary},
		llm.Backend{Name: "Secondary", Model: "m2", Provider: secondary},
	), WithObserver(obs))

	res := r.RewriteBatch(context.Background(), GenerationRequest{MainPrompt: "main", Personality: pirate, Items: []string{"Hello world"}})

	assert.True(t, res.Rewritten)
	assert.Equal(t, []string{"Ahoy, world!"}, res.Texts)
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "Primary", res.Winner.Provider)
	assert.Equal(t, "m1", res.Winner.Model)
	assert.Empty(t, secondary.Calls())

	calls := primary.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `["Hello world"]`, calls[0].payload)
	assert.Equal(t, 300, calls[0].maxTokens)
	assert.Contains(t, calls[0].systemPrompt, "Personality instructions: Arr.")

	assert.Equal(t, []string{"Primary=success"}, obs.attempts)
	assert.Equal(t, []int{1}, obs.fragments)
}

func TestRewriteBatch_LengthMismatchAdvancesAndTotalFailureKeepsOriginals(t *testing.T) {
	primary := replying(`["one","two"]`)
	secondary := failing(errors.New("Secondary API 503: unavailable"))
	obs := &recordingObserver{}
	r := NewRewriter(llm.NewChain(
		llm.Backend{Name: "Primary", Model: "m1", Provider: primary},
		llm.Backend{Name: "Secondary", Model: "m2", Provider: secondary},
	), WithObserver(obs))

	items := []string{"Hello world"}
	res := r.RewriteBatch(context.Background(), GenerationRequest{Personality: pirate, Items: items})

	assert.False(t, res.Rewritten)
	assert.Equal(t, items, res.Texts)
	assert.Nil(t, res.Winner)
	assert.Equal(t, []string{
		"Primary: expected 1 items but got 2",
		"Secondary: Secondary API 503: unavailable",
	}, res.Errors)
	require.Len(t, res.Outcomes, 2)
	assert.False(t, res.Outcomes[0].Success)
	assert.Len(t, secondary.Calls(), 1)
	assert.Equal(t, []string{"Primary=invalid", "Secondary=error"}, obs.attempts)
}

func TestRewriteBatch_SecondProviderRecovers(t *testing.T) {
	r := NewRewriter(llm.NewChain(
		llm.Backend{Name: "Primary", Model: "m1", Provider: replying("no array here")},
		llm.Backend{Name: "Secondary", Model: "m2", Provider: replying(`["B"]`)},
	))

	res := r.RewriteBatch(context.Background(), GenerationRequest{Personality: pirate, Items: []string{"b"}})

	assert.True(t, res.Rewritten)
	assert.Equal(t, []string{"B"}, res.Texts)
	assert.Equal(t, []string{"Primary: response did not contain a JSON array"}, res.Errors)
	assert.Equal(t, "Secondary", res.Winner.Provider)
}

func TestRewriteBatch_NoProviders(t *testing.T) {
	items := []string{"a", "b"}

	res := NewRewriter(nil).RewriteBatch(context.Background(), GenerationRequest{Items: items})

	assert.False(t, res.Rewritten)
	assert.Equal(t, items, res.Texts)
	assert.Equal(t, []string{NoProviderMessage}, res.Errors)
}

func TestRewriteBatch_EmptyItemsIsNoop(t *testing.T) {
	p := replying(`[]`)
	obs := &recordingObserver{}

	res := NewRewriter(llm.NewChain(llm.Backend{Name: "P", Provider: p}), WithObserver(obs)).
		RewriteBatch(context.Background(), GenerationRequest{})

	assert.False(t, res.Rewritten)
	assert.Empty(t, res.Errors)
	assert.Empty(t, p.Calls())
	assert.Empty(t, obs.fragments)
}

func TestRewriteBatch_PerAttemptDeadline(t *testing.T) {
	slow := &fakeProvider{reply: func(ctx context.Context, _ call) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	fast := replying(`["ok"]`)
	r := NewRewriter(llm.NewChain(
		llm.Backend{Name: "Slow", Provider: slow},
		llm.Backend{Name: "Fast", Provider: fast},
	), WithAttemptTimeout(20*time.Millisecond))

	start := time.Now()
	res := r.RewriteBatch(context.Background(), GenerationRequest{Items: []string{"x"}})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, res.Rewritten)
	assert.Equal(t, []string{"Slow: context deadline exceeded"}, res.Errors)
	require.Len(t, res.Outcomes, 2)
	assert.True(t, errors.Is(res.Outcomes[0].Err, context.DeadlineExceeded))
}

func TestRewriteBatch_CancelledParentStopsChain(t *testing.T) {
	p := replying(`["x"]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewRewriter(llm.NewChain(llm.Backend{Name: "P", Provider: p})).
		RewriteBatch(ctx, GenerationRequest{Items: []string{"a"}})

	assert.False(t, res.Rewritten)
	assert.Equal(t, []string{"P: context canceled"}, res.Errors)
	assert.Empty(t, p.Calls())
}
