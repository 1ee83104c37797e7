package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

type fakeProvider struct {
	name ProviderName

	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (json.RawMessage, error)
}

func (f *fakeProvider) Name() ProviderName { return f.name }

func (f *fakeProvider) CompleteJSON(ctx context.Context, _ ports.JSONRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	return f.fn(ctx, call)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func succeed(body string) func(context.Context, int) (json.RawMessage, error) {
	return func(context.Context, int) (json.RawMessage, error) { return json.RawMessage(body), nil }
}

func fail(err error) func(context.Context, int) (json.RawMessage, error) {
	return func(context.Context, int) (json.RawMessage, error) { return nil, err }
}

func testConfig() Config {
	return Config{
		Retries:          2,
		InitialBackoff:   time.Millisecond,
		AttemptTimeout:   time.Second,
		RPS:              1000,
		Burst:            100,
		CircuitThreshold: 50,
	}
}

func TestRegistry_NoProviders(t *testing.T) {
	_, err := NewRegistry(testConfig(), nil).CompleteJSON(context.Background(), ports.JSONRequest{})
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestRegistry_Fallback(t *testing.T) {
	errTransient := errors.New("upstream 503")

	tests := []struct {
		name          string
		primary       func(context.Context, int) (json.RawMessage, error)
		wantPrimary   int
		wantSecondary int
	}{
		{
			name:          "primary succeeds",
			primary:       succeed(`{"from":"primary"}`),
			wantPrimary:   1,
			wantSecondary: 0,
		},
		{
			name: "primary recovers on retry",
			primary: func(_ context.Context, call int) (json.RawMessage, error) {
				if call < 3 {
					return nil, errTransient
				}
				return json.RawMessage(`{"from":"primary"}`), nil
			},
			wantPrimary:   3,
			wantSecondary: 0,
		},
		{
			name:          "transient failures exhaust retries",
			primary:       fail(errTransient),
			wantPrimary:   3,
			wantSecondary: 1,
		},
		{
			name:          "permanent failure skips retries",
			primary:       fail(backoff.Permanent(errors.New("openai 401"))),
			wantPrimary:   1,
			wantSecondary: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeProvider{name: ProviderOpenAI, fn: tt.primary}
			secondary := &fakeProvider{name: ProviderAnthropic, fn: succeed(`{"from":"secondary"}`)}

			r := NewRegistry(testConfig(), nil)
			r.Register(primary)
			r.Register(secondary)

			out, err := r.CompleteJSON(context.Background(), ports.JSONRequest{Model: "gpt-4o-mini"})
			require.NoError(t, err)

			want := `{"from":"primary"}`
			if tt.wantSecondary > 0 {
				want = `{"from":"secondary"}`
			}

			assert.JSONEq(t, want, string(out))
			assert.Equal(t, tt.wantPrimary, primary.Calls())
			assert.Equal(t, tt.wantSecondary, secondary.Calls())
		})
	}
}

func TestRegistry_AllFail(t *testing.T) {
	errLast := errors.New("anthropic 529")

	r := NewRegistry(testConfig(), nil)
	r.Register(&fakeProvider{name: ProviderOpenAI, fn: fail(errors.New("openai 500"))})
	r.Register(&fakeProvider{name: ProviderAnthropic, fn: fail(errLast)})

	_, err := r.CompleteJSON(context.Background(), ports.JSONRequest{})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errLast)
}

func TestRegistry_CircuitOpens(t *testing.T) {
	cfg := testConfig()
	cfg.Retries = 0
	cfg.CircuitThreshold = 2

	primary := &fakeProvider{name: ProviderOpenAI, fn: fail(errors.New("boom"))}

	r := NewRegistry(cfg, nil)
	r.Register(primary)

	for range 2 {
		_, err := r.CompleteJSON(context.Background(), ports.JSONRequest{})
		require.Error(t, err)
	}

	_, err := r.CompleteJSON(context.Background(), ports.JSONRequest{})
	assert.ErrorIs(t, err, coreerrors.ErrCircuitBreakerOpen)
	assert.Equal(t, 2, primary.Calls())
}

func TestRegistry_AttemptTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Retries = 0
	cfg.AttemptTimeout = 20 * time.Millisecond

	slow := &fakeProvider{name: ProviderOpenAI, fn: func(ctx context.Context, _ int) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fallback := &fakeProvider{name: ProviderAnthropic, fn: succeed(`{"ok":true}`)}

	r := NewRegistry(cfg, nil)
	r.Register(slow)
	r.Register(fallback)

	out, err := r.CompleteJSON(context.Background(), ports.JSONRequest{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
}

func TestNew_RegistersConfiguredProviders(t *testing.T) {
	assert.Equal(t, 0, New(Config{}, nil).ProviderCount())
	assert.Equal(t, 1, New(Config{OpenAIKey: "sk-test"}, nil).ProviderCount())
	assert.Equal(t, 2, New(Config{OpenAIKey: "sk-test", AnthropicKey: "ak-test"}, nil).ProviderCount())
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "pure object", input: `{"key":"value"}`, want: `{"key":"value"}`, ok: true},
		{name: "preamble", input: `Here: {"key":"value"} done.`, want: `{"key":"value"}`, ok: true},
		{name: "markdown fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`, ok: true},
		{name: "braces in strings", input: `{"arr":"[1,{2}]","key":"val"}`, want: `{"arr":"[1,{2}]","key":"val"}`, ok: true},
		{name: "invalid then valid", input: `text { not json } then {"b":2}`, want: `{"b":2}`, ok: true},
		{name: "array only", input: `[{"a":1}]`, want: `{"a":1}`, ok: true},
		{name: "no json", input: "just text", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractObject(tt.input)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.JSONEq(t, tt.want, string(got))
			}
		})
	}
}
