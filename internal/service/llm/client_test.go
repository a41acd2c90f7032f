package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
	opts  *model.Options
}

func (s *stubModel) Generate(_ context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.seen = in
	s.opts = model.GetCommonOptions(nil, opts...)
	return s.reply, s.err
}

func (s *stubModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestCompletePassesGenerationOptions(t *testing.T) {
	stub := &stubModel{reply: schema.AssistantMessage("```json\n{}\n```", nil)}
	c := NewWithModel(stub)

	out, err := c.Complete(context.Background(), "analyze", 3000, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", out)

	require.Len(t, stub.seen, 1)
	assert.Equal(t, schema.User, stub.seen[0].Role)
	assert.Equal(t, "analyze", stub.seen[0].Content)
	require.NotNil(t, stub.opts.MaxTokens)
	assert.Equal(t, 3000, *stub.opts.MaxTokens)
	require.NotNil(t, stub.opts.Temperature)
	assert.InDelta(t, 0.3, *stub.opts.Temperature, 1e-6)
}

func TestCompleteEmptyReply(t *testing.T) {
	c := NewWithModel(&stubModel{reply: schema.AssistantMessage("  ", nil)})
	_, err := c.Complete(context.Background(), "p", 10, 0)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompleteWrapsModelError(t *testing.T) {
	boom := errors.New("throttled")
	c := NewWithModel(&stubModel{err: boom})
	_, err := c.Complete(context.Background(), "p", 10, 0)
	assert.ErrorIs(t, err, boom)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "bedrock", APIKey: "k"})
	assert.Error(t, err)
}
