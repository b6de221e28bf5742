package presenter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-services/AgentLang/internal/judge"
	"github.com/mohamed-services/AgentLang/internal/llm"
	"github.com/mohamed-services/AgentLang/internal/policy"
	"github.com/mohamed-services/AgentLang/internal/tally"
	"github.com/mohamed-services/AgentLang/internal/types"
	"github.com/mohamed-services/AgentLang/internal/validate"
)

// mockStore is a testify mock of NoticeStore.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListComments(ctx context.Context, number int) ([]Comment, error) {
	args := m.Called(ctx, number)
	comments, _ := args.Get(0).([]Comment)
	return comments, args.Error(1)
}

func (m *mockStore) CreateComment(ctx context.Context, number int, body string) error {
	return m.Called(ctx, number, body).Error(0)
}

func (m *mockStore) UpdateComment(ctx context.Context, id int64, body string) error {
	return m.Called(ctx, id, body).Error(0)
}

func (m *mockStore) AddLabel(ctx context.Context, number int, label string) error {
	return m.Called(ctx, number, label).Error(0)
}

func member(id, name, org string) judge.Identity {
	return judge.Identity{
		ID:           id,
		Name:         name,
		Organization: org,
		Backend:      &llm.ProviderConfig{Type: llm.ProviderOpenAI, Model: "m"},
		Enabled:      true,
	}
}

func sampleVerdicts() []judge.Verdict {
	return []judge.Verdict{
		{Judge: member("anthropic", "Claude", "Anthropic"), Tag: judge.TagApprove, Reasoning: "Sound design.", Attempts: 1},
		{Judge: member("openai", "GPT-4o", "OpenAI"), Tag: judge.TagApprove, Reasoning: "Fine.", Attempts: 1},
		{Judge: member("google", "Gemini", "Google"), Tag: judge.TagReject, Reasoning: "Breaks loops.", Attempts: 2},
		{Judge: member("xai", "Grok", "xAI"), Tag: judge.TagAbstain, Reasoning: "Not enough context.", Attempts: 1},
		{Judge: member("mistral", "Mistral", "Mistral AI"), Tag: judge.TagDisabled, Message: "Not yet enabled"},
	}
}

func sampleSummary() Summary {
	vs := sampleVerdicts()
	return Summary{
		Verdicts: vs,
		Result:   tally.Count(vs, 0.5),
		Decision: policy.Decision{Threshold: 0.5},
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, DefaultMarkers(), Labels{}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.Equal(t, 4, p.PublishVerdicts(ctx, 7, sampleVerdicts()))
		require.NoError(t, p.PublishSummary(ctx, 7, sampleSummary()))
	}

	comments, err := store.ListComments(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, comments, 5, "four judge notices and one summary")

	markers := DefaultMarkers()
	for _, marker := range []string{
		markers.Judge("anthropic"), markers.Judge("openai"), markers.Judge("google"),
		markers.Judge("xai"), markers.Summary,
	} {
		count := 0
		for _, c := range comments {
			if strings.Contains(c.Body, marker) {
				count++
			}
		}
		assert.Equal(t, 1, count, marker)
	}

	assert.Contains(t, comments[len(comments)-1].Body, markers.Summary, "summary is published last")
}

func TestUpsert_ReplacesFirstMatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateComment(ctx, 1, "unrelated"))
	require.NoError(t, store.CreateComment(ctx, 1, "old <!-- m -->"))

	replaced, err := Upsert(ctx, store, 1, "<!-- m -->", "new <!-- m -->")
	require.NoError(t, err)
	assert.True(t, replaced)

	comments, _ := store.ListComments(ctx, 1)
	require.Len(t, comments, 2)
	assert.Equal(t, "new <!-- m -->", comments[1].Body)
}

func TestPublishVerdicts_SkipsNonResponders(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, DefaultMarkers(), Labels{}, nil)

	vs := []judge.Verdict{
		judge.MissingCredential(member("openai", "GPT-4o", "OpenAI")),
		judge.Disabled(member("apple", "AFM", "Apple")),
	}
	assert.Equal(t, 0, p.PublishVerdicts(context.Background(), 1, vs))

	comments, _ := store.ListComments(context.Background(), 1)
	assert.Empty(t, comments)
}

func TestPublishVerdicts_FailureIsLoggedAndSkipped(t *testing.T) {
	store := &mockStore{}
	store.On("ListComments", mock.Anything, 3).Return([]Comment{}, nil)
	store.On("CreateComment", mock.Anything, 3, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "agentlang-vote-anthropic-comment")
	})).Return(errors.New("502 bad gateway"))
	store.On("CreateComment", mock.Anything, 3, mock.Anything).Return(nil)

	p := New(store, DefaultMarkers(), Labels{}, nil)
	published := p.PublishVerdicts(context.Background(), 3, sampleVerdicts())

	assert.Equal(t, 3, published)
	store.AssertNumberOfCalls(t, "CreateComment", 4)
}

func TestPublishSummary_FailureIsReturned(t *testing.T) {
	store := &mockStore{}
	store.On("ListComments", mock.Anything, 3).Return(nil, errors.New("connection refused"))

	err := New(store, DefaultMarkers(), Labels{}, nil).PublishSummary(context.Background(), 3, sampleSummary())
	require.Error(t, err)
	assert.Equal(t, types.REVIEW_PUBLISH_FAILED, types.CodeOf(err))
}

func TestApplyOutcomeLabel(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, DefaultMarkers(), Labels{Approved: "council-approved", Rejected: "council-rejected"}, nil)
	ctx := context.Background()

	p.ApplyOutcomeLabel(ctx, 1, tally.OutcomeApproved)
	p.ApplyOutcomeLabel(ctx, 1, tally.OutcomeApproved)
	p.ApplyOutcomeLabel(ctx, 2, tally.OutcomeNoQuorum)

	assert.Equal(t, []string{"council-approved"}, store.Labels(1))
	assert.Empty(t, store.Labels(2))
}

func TestApplyOutcomeLabel_FailureTolerated(t *testing.T) {
	store := &mockStore{}
	store.On("AddLabel", mock.Anything, 1, "council-rejected").Return(errors.New("forbidden"))

	p := New(store, DefaultMarkers(), Labels{Rejected: "council-rejected"}, nil)
	assert.NotPanics(t, func() { p.ApplyOutcomeLabel(context.Background(), 1, tally.OutcomeRejected) })
	store.AssertExpectations(t)
}

func TestPublishOtherNotices(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, DefaultMarkers(), Labels{}, nil)
	ctx := context.Background()

	require.NoError(t, p.PublishShortCircuit(ctx, 9, policy.ShortCircuit{Path: "README.md"}))
	require.NoError(t, p.PublishReadmeNotice(ctx, 9, "README.md"))
	require.NoError(t, p.PublishValidationFailure(ctx, 9, []validate.Result{{Path: "a.al", Error: "First line is empty."}}))
	require.NoError(t, p.PublishValidationFailure(ctx, 9, []validate.Result{{Path: "b.al", Error: "First line is empty."}}))

	comments, _ := store.ListComments(ctx, 9)
	require.Len(t, comments, 3)
	assert.Contains(t, comments[2].Body, "b.al")
	assert.NotContains(t, comments[2].Body, "a.al")
}
