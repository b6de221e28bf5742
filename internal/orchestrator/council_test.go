package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/llm/providers"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/presenter"
	"github.com/mohamed-services/AgentLang/internal/tally"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

type fakeSource struct {
	mu        sync.Mutex
	paths     []string
	diff      string
	pathsErr  error
	diffErr   error
	diffCalls int
}

func (s *fakeSource) ChangedPaths(ctx context.Context, base, head string) ([]string, error) {
	return s.paths, s.pathsErr
}

func (s *fakeSource) Diff(ctx context.Context, base, head string) (string, error) {
	s.mu.Lock()
	s.diffCalls++
	s.mu.Unlock()
	return s.diff, s.diffErr
}

type fakeValidator struct {
	results []validate.Result
	err     error
}

func (v fakeValidator) ValidateChanged(ctx context.Context, base, head string) ([]validate.Result, error) {
	return v.results, v.err
}

// failingStore fails any write whose body contains failOn.
type failingStore struct {
	*presenter.MemoryStore
	failOn string
}

func (s *failingStore) CreateComment(ctx context.Context, number int, body string) error {
	if strings.Contains(body, s.failOn) {
		return errors.New("502 bad gateway")
	}
	return s.MemoryStore.CreateComment(ctx, number, body)
}

func member(id string) judge.Identity {
	return judge.Identity{
		ID:            id,
		Name:          strings.ToUpper(id[:1]) + id[1:],
		Organization:  id + " inc",
		Backend:       &llm.ProviderConfig{Type: llm.ProviderOpenAI, Model: id + "-model"},
		CredentialKey: strings.ToUpper(id) + "_API_KEY",
		Enabled:       true,
	}
}

func disabledMember(id, reason string) judge.Identity {
	m := member(id)
	m.Enabled = false
	m.AbstainReason = reason
	return m
}

// harness wires a Council to in-memory collaborators. Providers are looked up by model.
type harness struct {
	source    *fakeSource
	store     *presenter.MemoryStore
	providers map[string]llm.Provider
	missing   map[string]bool
	buildErr  map[string]error
	opts      []Option
}

func newHarness(paths ...string) *harness {
	if len(paths) == 0 {
		paths = []string{"src/main.al"}
	}
	return &harness{
		source:    &fakeSource{paths: paths, diff: "+VOTE: APPROVE\n"},
		store:     presenter.NewMemoryStore(),
		providers: map[string]llm.Provider{},
		missing:   map[string]bool{},
		buildErr:  map[string]error{},
	}
}

func (h *harness) answer(id string, texts ...string) {
	h.providers[id+"-model"] = providers.NewMockProvider(texts...)
}

func (h *harness) provide(id string, p llm.Provider) {
	h.providers[id+"-model"] = p
}

func (h *harness) factory(cfg llm.ProviderConfig) (llm.Provider, error) {
	if err := h.buildErr[cfg.Model]; err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, errors.New("api key not passed through")
	}
	p, ok := h.providers[cfg.Model]
	if !ok {
		return nil, errors.New("no provider scripted for " + cfg.Model)
	}
	return p, nil
}

func (h *harness) council(judges []judge.Identity, store presenter.NoticeStore, labels presenter.Labels, extra ...Option) *Council {
	if store == nil {
		store = h.store
	}
	opts := []Option{
		WithProviderFactory(h.factory),
		WithCredentials(CredentialsFunc(func(name string) (string, bool) {
			if h.missing[name] {
				return "", false
			}
			return "secret-" + name, true
		})),
		WithJudgeOptions(
			judge.WithSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
			judge.WithJitterSource(func() float64 { return 0 }),
		),
	}
	opts = append(opts, h.opts...)
	opts = append(opts, extra...)
	return New(judges, h.source, presenter.New(store, presenter.DefaultMarkers(), labels, nil), opts...)
}

func testMeta() docket.Meta {
	return docket.Meta{
		Number:     12,
		Title:      "Add loop syntax",
		BaseSHA:    "base",
		HeadSHA:    "head",
		Repository: "mohamed-services/AgentLang",
	}
}

func tags(vs []judge.Verdict) []judge.Tag {
	out := make([]judge.Tag, len(vs))
	for i, v := range vs {
		out[i] = v.Tag
	}
	return out
}

func comments(t *testing.T, store *presenter.MemoryStore) []presenter.Comment {
	t.Helper()
	cs, err := store.ListComments(context.Background(), testMeta().Number)
	require.NoError(t, err)
	return cs
}

func TestRun_SimpleMajorityTieRejects(t *testing.T) {
	h := newHarness()
	h.answer("anthropic", "VOTE: APPROVE\nREASONING: Good.")
	h.answer("openai", "VOTE: APPROVE\nREASONING: Fine.")
	h.answer("google", "VOTE: REJECT\nREASONING: Breaks loops.")
	h.answer("xai", "VOTE: ABSTAIN\nREASONING: Unsure.")

	judges := []judge.Identity{
		member("anthropic"), disabledMember("mistral", ""), member("openai"),
		member("google"), member("xai"), disabledMember("apple", "No public API available"),
	}

	out, err := h.council(judges, nil, presenter.Labels{}).Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, StateResolved, out.State)
	assert.Equal(t, []State{StatePending, StateInvoking, StateCollecting, StateTallying, StateResolved}, out.Trail)
	assert.Equal(t, 0.5, out.Decision.Threshold)
	assert.False(t, out.Decision.SuperMajority)

	assert.Equal(t, []judge.Tag{
		judge.TagApprove, judge.TagApprove, judge.TagReject, judge.TagAbstain,
		judge.TagDisabled, judge.TagDisabled,
	}, tags(out.Verdicts))
	assert.Equal(t, "openai", out.Verdicts[1].Judge.ID, "active judges keep roster order")
	assert.Equal(t, "Not yet enabled", out.Verdicts[4].Message)
	assert.Equal(t, "No public API available", out.Verdicts[5].Message)

	assert.Equal(t, 4, out.Result.Denominator)
	assert.Equal(t, 2, out.Result.Disabled)
	assert.Equal(t, 0.5, out.Result.Ratio)
	assert.False(t, out.Approved)
	assert.Equal(t, tally.OutcomeRejected, out.Status)
	assert.Equal(t, 4, out.Invocations)
	assert.False(t, out.RunID.IsZero())

	cs := comments(t, h.store)
	require.Len(t, cs, 5, "four judge notices then the summary")
	markers := presenter.DefaultMarkers()
	assert.Contains(t, cs[4].Body, markers.Summary)
	assert.Contains(t, cs[4].Body, "ratio 0.500 must exceed 0.500")
	for _, c := range cs[:4] {
		assert.Contains(t, c.Body, markers.Vote)
	}
}

func TestRun_SimpleMajorityApproves(t *testing.T) {
	h := newHarness()
	for _, id := range []string{"a", "b", "c"} {
		h.answer(id, "VOTE: APPROVE\nREASONING: ok")
	}
	h.answer("d", "VOTE: REJECT\nREASONING: no")

	out, err := h.council([]judge.Identity{member("a"), member("b"), member("c"), member("d")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.True(t, out.Approved)
	assert.Equal(t, tally.OutcomeApproved, out.Status)
	assert.Equal(t, 0.75, out.Result.Ratio)
}

func TestRun_SuperMajority(t *testing.T) {
	tests := []struct {
		name     string
		answers  []string
		approved bool
	}{
		{name: "two thirds exactly is not enough", answers: []string{"APPROVE", "APPROVE", "REJECT"}, approved: false},
		{name: "three of four clears", answers: []string{"APPROVE", "APPROVE", "APPROVE", "REJECT"}, approved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("governance/rules.md", "src/x.al")
			var judges []judge.Identity
			for i, a := range tt.answers {
				id := string(rune('a' + i))
				h.answer(id, "VOTE: "+a+"\nREASONING: r")
				judges = append(judges, member(id))
			}

			out, err := h.council(judges, nil, presenter.Labels{}).Run(context.Background(), testMeta())
			require.NoError(t, err)

			assert.True(t, out.Decision.SuperMajority)
			assert.InDelta(t, policy.DefaultSuperMajority, out.Decision.Threshold, 1e-12)
			assert.Equal(t, []string{"governance/rules.md"}, out.Decision.ProtectedPaths)
			assert.Equal(t, tt.approved, out.Approved)

			cs := comments(t, h.store)
			assert.Contains(t, cs[len(cs)-1].Body, "Super-majority required")
		})
	}
}

func TestRun_ReadmeShortCircuit(t *testing.T) {
	h := newHarness("src/main.al", "README.md")
	p := providers.NewMockProvider("VOTE: APPROVE")
	h.provide("a", p)

	out, err := h.council([]judge.Identity{member("a")}, nil, presenter.Labels{Rejected: "council-rejected"}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, []State{StatePending, StateShortCircuited, StateResolved}, out.Trail)
	require.NotNil(t, out.Decision.ShortCircuit)
	assert.Equal(t, "README.md", out.Decision.ShortCircuit.Path)
	assert.Equal(t, tally.OutcomeRejected, out.Status)
	assert.False(t, out.Approved)
	assert.Zero(t, out.Invocations)
	assert.Zero(t, p.CallCount())
	assert.Empty(t, out.Verdicts)
	assert.Zero(t, h.source.diffCalls, "diff is never fetched")

	cs := comments(t, h.store)
	require.Len(t, cs, 1)
	assert.Contains(t, cs[0].Body, presenter.DefaultMarkers().Summary)
	assert.Equal(t, []string{"council-rejected"}, h.store.Labels(testMeta().Number))
}

func TestRun_JudgeTimeoutIsError(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE")
	h.answer("b", "VOTE: APPROVE")
	h.answer("c", "VOTE: APPROVE")
	h.provide("slow", llm.ProviderFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	h.opts = append(h.opts, WithJudgeOptions(judge.WithCallTimeout(20*time.Millisecond)))

	out, err := h.council([]judge.Identity{member("a"), member("slow"), member("b"), member("c")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	slow := out.Verdicts[1]
	assert.Equal(t, judge.TagError, slow.Tag)
	assert.Equal(t, judge.DefaultMaxAttempts, slow.Attempts)
	assert.Contains(t, slow.Message, "timed out")

	assert.Equal(t, 4, out.Result.Denominator, "errors count against approval")
	assert.Equal(t, 1, out.Result.Errors)
	assert.True(t, out.Approved)
	assert.Equal(t, 3+judge.DefaultMaxAttempts, out.Invocations)

	cs := comments(t, h.store)
	assert.Contains(t, cs[len(cs)-1].Body, "encountered API errors")
}

func TestRun_MissingCredentialAbstains(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE")
	p := providers.NewMockProvider("VOTE: APPROVE")
	h.provide("b", p)
	h.missing["B_API_KEY"] = true

	out, err := h.council([]judge.Identity{member("a"), member("b")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	b := out.Verdicts[1]
	assert.Equal(t, judge.TagAbstain, b.Tag)
	assert.Equal(t, "API key `B_API_KEY` not configured.", b.Message)
	assert.Zero(t, p.CallCount())
	assert.Equal(t, 2, out.Result.Denominator)
	assert.Equal(t, 0.5, out.Result.Ratio)
	assert.False(t, out.Approved)

	assert.Len(t, comments(t, h.store), 2, "one judge notice and the summary")
}

func TestRun_BackendBuildFailureIsError(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE")
	h.buildErr["b-model"] = errors.New("unsupported provider")

	out, err := h.council([]judge.Identity{member("a"), member("b")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	b := out.Verdicts[1]
	assert.Equal(t, judge.TagError, b.Tag)
	assert.Contains(t, b.Message, string(types.JUDGE_BUILD_FAILED))
	assert.Len(t, comments(t, h.store), 3, "the failed judge still gets a notice")
}

func TestRun_PanickingJudgeIsError(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE")
	h.provide("b", llm.ProviderFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		panic("nil map")
	}))

	out, err := h.council([]judge.Identity{member("a"), member("b")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, judge.TagApprove, out.Verdicts[0].Tag)
	assert.Equal(t, judge.TagError, out.Verdicts[1].Tag)
	assert.Contains(t, out.Verdicts[1].Message, "judge panicked: nil map")
}

func TestRun_JudgesRunConcurrently(t *testing.T) {
	const n = 4
	var arrived sync.WaitGroup
	arrived.Add(n)

	h := newHarness()
	var judges []judge.Identity
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		judges = append(judges, member(id))
		h.provide(id, llm.ProviderFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			arrived.Done()
			done := make(chan struct{})
			go func() { arrived.Wait(); close(done) }()
			select {
			case <-done:
				return &llm.CompletionResponse{Message: llm.NewAssistantMessage("VOTE: APPROVE")}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}))
	}
	h.opts = append(h.opts, WithJudgeOptions(judge.WithMaxAttempts(1), judge.WithCallTimeout(5*time.Second)))

	out, err := h.council(judges, nil, presenter.Labels{}).Run(context.Background(), testMeta())
	require.NoError(t, err)
	for _, v := range out.Verdicts {
		assert.Equal(t, judge.TagApprove, v.Tag, "every judge must be in flight at once")
	}
}

func TestRun_AllDisabledIsNoQuorum(t *testing.T) {
	h := newHarness()
	out, err := h.council([]judge.Identity{disabledMember("a", ""), disabledMember("b", "Restricted access")}, nil, presenter.Labels{}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, tally.OutcomeNoQuorum, out.Status)
	assert.False(t, out.Approved)
	assert.Zero(t, out.Invocations)

	cs := comments(t, h.store)
	require.Len(t, cs, 1)
	assert.Contains(t, cs[0].Body, "NO VOTE")
}

func TestRun_RerunReplacesNotices(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE\nREASONING: first", "VOTE: REJECT\nREASONING: second")
	h.answer("b", "VOTE: APPROVE")
	c := h.council([]judge.Identity{member("a"), member("b")}, nil, presenter.Labels{})

	_, err := c.Run(context.Background(), testMeta())
	require.NoError(t, err)
	out, err := c.Run(context.Background(), testMeta())
	require.NoError(t, err)

	assert.Equal(t, judge.TagReject, out.Verdicts[0].Tag)
	cs := comments(t, h.store)
	require.Len(t, cs, 3)
	assert.Contains(t, cs[0].Body, "second")
	assert.NotContains(t, cs[0].Body, "first")
}

func TestRun_OutcomeLabel(t *testing.T) {
	h := newHarness()
	h.answer("a", "VOTE: APPROVE")

	_, err := h.council([]judge.Identity{member("a")}, nil, presenter.Labels{Approved: "council-approved"}).
		Run(context.Background(), testMeta())
	require.NoError(t, err)
	assert.Equal(t, []string{"council-approved"}, h.store.Labels(testMeta().Number))
}

func TestRun_ValidationStatusInCase(t *testing.T) {
	h := newHarness()
	p := providers.NewMockProvider("VOTE: APPROVE")
	h.provide("a", p)
	h.opts = append(h.opts, WithValidator(fakeValidator{results: []validate.Result{{Path: "src/main.al", Passed: true}}}))

	out, err := h.council([]judge.Identity{member("a")}, nil, presenter.Labels{}).Run(context.Background(), testMeta())
	require.NoError(t, err)

	require.NotNil(t, out.Case)
	assert.Equal(t, "- `src/main.al`: VALID", out.Case.Validation)

	calls := p.GetCalls()
	require.Len(t, calls, 1)
	msgs := calls[0].Request.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, docket.Directive(member("a")), msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "`src/main.al`: VALID")
	assert.Equal(t, "a-model", calls[0].Request.Model)
}

func TestRun_CollaboratorFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		store func(h *harness) presenter.NoticeStore
		code  types.ErrorCode
	}{
		{
			name:  "changed paths",
			setup: func(h *harness) { h.source.pathsErr = errors.New("connection refused") },
			code:  types.REVIEW_FETCH_FAILED,
		},
		{
			name:  "diff keeps client code",
			setup: func(h *harness) { h.source.diffErr = types.NewError(types.REVIEW_UNAUTHORIZED, "bad token") },
			code:  types.REVIEW_UNAUTHORIZED,
		},
		{
			name: "validation git failure",
			setup: func(h *harness) {
				h.opts = append(h.opts, WithValidator(fakeValidator{err: errors.New("git exited 128")}))
			},
			code: types.VALIDATION_GIT_FAILED,
		},
		{
			name:  "summary publication",
			setup: func(h *harness) {},
			store: func(h *harness) presenter.NoticeStore {
				return &failingStore{MemoryStore: h.store, failOn: presenter.DefaultMarkers().Summary}
			},
			code: types.REVIEW_PUBLISH_FAILED,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.answer("a", "VOTE: APPROVE")
			tt.setup(h)
			var store presenter.NoticeStore
			if tt.store != nil {
				store = tt.store(h)
			}

			out, err := h.council([]judge.Identity{member("a")}, store, presenter.Labels{}).Run(context.Background(), testMeta())
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestRun_InvalidMeta(t *testing.T) {
	h := newHarness()
	_, err := h.council(nil, nil, presenter.Labels{}).Run(context.Background(), docket.Meta{Number: 0, BaseSHA: "b"})
	require.Error(t, err)
	assert.Equal(t, types.RUN_INVALID_REQUEST, types.CodeOf(err))
	assert.Contains(t, err.Error(), "number, head")
}

func TestRun_CollidingJudgeSlugs(t *testing.T) {
	tests := []struct {
		name    string
		judges  []judge.Identity
		wantMsg string
	}{
		{"same slug", []judge.Identity{member("x.ai"), member("x-ai")}, `"x.ai" and "x-ai" share the notice marker slug "x-ai"`},
		{"same id", []judge.Identity{member("alpha"), member("alpha")}, `"alpha" and "alpha"`},
		{"empty slug", []judge.Identity{member("--")}, `judge id "--" has no letters or digits`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.answer("x.ai", "VOTE: APPROVE\nREASONING: first")
			h.answer("x-ai", "VOTE: REJECT\nREASONING: second")

			_, err := h.council(tt.judges, nil, presenter.Labels{}).Run(context.Background(), testMeta())
			require.Error(t, err)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, comments(t, h.store))
		})
	}
}

func TestState_Transitions(t *testing.T) {
	assert.True(t, StatePending.CanTransition(StateInvoking))
	assert.True(t, StatePending.CanTransition(StateShortCircuited))
	assert.True(t, StateShortCircuited.CanTransition(StateResolved))
	assert.False(t, StatePending.CanTransition(StateResolved))
	assert.False(t, StateInvoking.CanTransition(StateTallying))
	assert.False(t, StateResolved.CanTransition(StatePending))
	assert.True(t, StateResolved.IsTerminal())
	assert.False(t, StateTallying.IsTerminal())
}
