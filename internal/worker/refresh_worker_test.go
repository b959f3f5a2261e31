package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	"bikeshare/internal/log"
	"bikeshare/internal/source/memory"
)

func sample() []core.DailyRecord {
	return []core.DailyRecord{
		{Date: core.NewDate(2011, 1, 1), Season: 1, Weekday: 6, Weathersit: 2, Casual: 331, Registered: 654, Total: 985},
		{Date: core.NewDate(2011, 1, 2), Season: 1, Weekday: 0, Weathersit: 2, Casual: 131, Registered: 670, Total: 801},
	}
}

func TestRefresh(t *testing.T) {
	store := memory.New(sample()...)
	holder := dataset.NewHolder()
	w := NewRefreshWorker(holder, store, core.DefaultLabels(), time.Minute, log.New(log.DefaultConfig()))

	changed, err := w.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	first := holder.Dataset()

	changed, err = w.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "same contents keep the current snapshot")
	assert.Same(t, first, holder.Dataset())

	recs := sample()
	recs[1].Casual, recs[1].Total = 200, 870
	require.NoError(t, store.ReplaceRecords(context.Background(), recs))
	changed, err = w.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, first.Version(), holder.Dataset().Version())
}

func TestRefreshKeepsDatasetOnLabelError(t *testing.T) {
	store := memory.New(sample()...)
	holder := dataset.NewHolder()
	w := NewRefreshWorker(holder, store, core.DefaultLabels(), time.Minute, log.New(log.DefaultConfig()))
	_, err := w.Refresh(context.Background())
	require.NoError(t, err)
	before := holder.Dataset()

	recs := sample()
	recs[0].Season = 7
	require.NoError(t, store.ReplaceRecords(context.Background(), recs))
	_, err = w.Refresh(context.Background())
	assert.ErrorIs(t, err, core.ErrLabel)
	assert.Same(t, before, holder.Dataset())
}

func TestRunStopsOnCancel(t *testing.T) {
	holder := dataset.NewHolder()
	w := NewRefreshWorker(holder, memory.New(sample()...), core.DefaultLabels(), 10*time.Millisecond, log.New(log.DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, holder.Ready, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
