package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextDefault(t *testing.T) {
	// nolint:staticcheck // exercising the nil-context fallback on purpose
	assert.Equal(t, Default(), FromContext(nil))
	assert.Equal(t, Default(), FromContext(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)

	FromContext(ctx).Info().Msg("hello")
	assert.True(t, tl.Contains("hello"))
}

func TestWithFeedField(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithFeed(ctx, "f-acme~metro~fr")

	Ctx(ctx).Info().Msg("merge")
	assert.True(t, tl.Contains(`"feed_id":"f-acme~metro~fr"`))
}

func TestWithDatasetAndOperation(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithDataset(ctx, "acme-metro")
	ctx = WithOperation(ctx, "build_record")

	Ctx(ctx).Debug().Msg("processing")
	assert.True(t, tl.Contains(`"dataset":"acme-metro"`))
	assert.True(t, tl.Contains(`"operation":"build_record"`))
}
