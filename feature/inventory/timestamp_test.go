package inventory

import (
	"context"
	"testing"
	"time"

	"policy-agent/feature/target"
	"policy-agent/feature/target/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHasExpired_MarkerAbsent(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetMarker", mock.Anything, markerName).
		Return(time.Time{}, target.ErrNotFound)

	ts := NewTimestamp(markerName, client, time.Hour)
	assert.True(t, ts.HasExpired(context.Background()),
		"absent marker must force the first pass to be full")
}

func TestHasExpired_Fresh(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetMarker", mock.Anything, markerName).
		Return(time.Now().Add(-time.Minute), nil)

	ts := NewTimestamp(markerName, client, time.Hour)
	assert.False(t, ts.HasExpired(context.Background()))
}

func TestHasExpired_PastTTL(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetMarker", mock.Anything, markerName).
		Return(time.Now().Add(-2*time.Hour), nil)

	ts := NewTimestamp(markerName, client, time.Hour)
	assert.True(t, ts.HasExpired(context.Background()))
}

func TestHasExpired_ReadsThroughEveryCall(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetMarker", mock.Anything, markerName).
		Return(time.Now(), nil).Times(3)

	ts := NewTimestamp(markerName, client, time.Hour)
	for i := 0; i < 3; i++ {
		ts.HasExpired(context.Background())
	}
	client.AssertExpectations(t)
}

func TestUpdate_WritesMarker(t *testing.T) {
	client := new(mocks.Client)
	client.On("SetMarker", mock.Anything, markerName, mock.AnythingOfType("time.Time")).
		Return(nil)

	ts := NewTimestamp(markerName, client, time.Hour)
	require.NoError(t, ts.Update(context.Background()))
	client.AssertExpectations(t)
}
