package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	query url.Values
	err   error
}

func (f *fakeCatalog) SearchEvents(_ context.Context, query url.Values) ([]byte, error) {
	f.query = query
	return []byte(`{"res":[]}`), f.err
}

func (f *fakeCatalog) EventParticipants(context.Context, int64) ([]byte, error) {
	return []byte(`[]`), f.err
}

func (f *fakeCatalog) EventTestsRaw(context.Context, int64) ([]byte, error) {
	return []byte(`{"res":[]}`), f.err
}

func TestEventCatalogService_SearchForwardsOnlyKnownParams(t *testing.T) {
	t.Parallel()

	source := &fakeCatalog{}
	svc := NewEventCatalogService(source, &fakeEventTests{})

	_, err := svc.SearchEvents(context.Background(), url.Values{
		"motsheiti": {"Landsmót"},
		"ar":        {"2026", " "},
		"api_token": {"leak"},
	})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"motsheiti": {"Landsmót"}, "ar": {"2026"}}, source.query)
}

func TestEventCatalogService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewEventCatalogService(&fakeCatalog{err: errors.New("boom")}, &fakeEventTests{err: errors.New("boom")})
	ctx := context.Background()

	_, err := svc.Participants(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Participants(ctx, 1)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	_, err = svc.Tests(ctx, 1)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	_, err = svc.ListTests(ctx, 1)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	_, err = svc.SearchEvents(ctx, nil)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}
