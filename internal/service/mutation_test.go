package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"coaching-attendance/internal/attendance"
	"coaching-attendance/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommitter запоминает вызовы и может блокироваться до release
type fakeCommitter struct {
	mu      sync.Mutex
	calls   int
	lastCtx context.Context
	err     error

	started chan struct{}
	release chan struct{}
}

func (f *fakeCommitter) Commit(ctx context.Context, model attendance.DayModel) (*CommitResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastCtx = ctx
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &CommitResult{Plan: attendance.Reconcile(model, model.Date, nil)}, nil
}

func (f *fakeCommitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleDay() attendance.DayModel {
	roster := []models.Student{
		{ID: 1, Name: "Asha", ClassID: "10", RollNumber: 1},
		{ID: 2, Name: "Bilal", ClassID: "10", RollNumber: 2},
		{ID: 3, Name: "Chen", ClassID: "10", RollNumber: 3},
	}
	return attendance.BuildDay(roster, nil, "10", jan15, "")
}

func TestMutationController_CommitSuccess(t *testing.T) {
	committer := &fakeCommitter{}
	c := NewMutationController(committer)

	v0 := sampleDay()
	key := KeyFor("10", jan15)
	require.True(t, c.Store(v0))

	monthKey := MonthKeyFor("10", jan15)
	require.True(t, c.StoreRollup(monthKey, c.RollupGeneration(monthKey), attendance.BuildMonth(nil, 2024, time.January, jan15)))

	proposed := attendance.SetStatus(v0, 1, models.StatusPresent)
	res, err := c.Commit(context.Background(), proposed)
	require.NoError(t, err)
	assert.Len(t, res.Plan.Inserts, 3)

	view, ok := c.View(key)
	require.True(t, ok)
	assert.True(t, view.Equal(proposed))
	assert.Equal(t, StateIdle, c.State(key))

	_, ok = c.Rollup(monthKey)
	assert.False(t, ok, "month rollup must be invalidated after commit")
}

func TestMutationController_RollbackRestoresSnapshot(t *testing.T) {
	committer := &fakeCommitter{err: &TransportError{Op: "вставка посещаемости", Err: errTransport}}
	c := NewMutationController(committer)

	v0 := attendance.SetStatus(sampleDay(), 2, models.StatusLeave)
	key := KeyFor("10", jan15)
	require.True(t, c.Store(v0))

	monthKey := MonthKeyFor("10", jan15)
	require.True(t, c.StoreRollup(monthKey, c.RollupGeneration(monthKey), attendance.BuildMonth(nil, 2024, time.January, jan15)))

	_, err := c.Commit(context.Background(), attendance.BulkSetStatus(v0, models.StatusHoliday))
	require.Error(t, err)

	var ce *CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, key, ce.Key)
	assert.ErrorIs(t, err, errTransport)

	view, ok := c.View(key)
	require.True(t, ok)
	assert.True(t, view.Equal(v0), "view must equal the snapshot taken before commit")
	assert.Equal(t, StateIdle, c.State(key))

	// часть записей могла сохраниться до ошибки
	_, ok = c.Rollup(monthKey)
	assert.False(t, ok, "failed commit drops the month rollup")
}

func TestMutationController_RollbackWithoutSnapshot(t *testing.T) {
	c := NewMutationController(&fakeCommitter{err: errTransport})

	_, err := c.Commit(context.Background(), sampleDay())
	require.Error(t, err)

	_, ok := c.View(KeyFor("10", jan15))
	assert.False(t, ok)
}

func TestMutationController_PreflightAborts(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() context.Context
		model   attendance.DayModel
		wantErr error
	}{
		{
			name: "cancelled context",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			model:   sampleDay(),
			wantErr: context.Canceled,
		},
		{
			name:    "empty model",
			ctx:     context.Background,
			model:   attendance.DayModel{ClassID: "10", Date: jan15, Entries: []attendance.DayEntry{}},
			wantErr: ErrNothingToMark,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			committer := &fakeCommitter{}
			c := NewMutationController(committer)

			_, err := c.Commit(tt.ctx(), tt.model)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, committer.callCount())

			_, ok := c.View(KeyFor("10", jan15))
			assert.False(t, ok)
		})
	}
}

func TestMutationController_InFlight(t *testing.T) {
	committer := &fakeCommitter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewMutationController(committer)
	key := KeyFor("10", jan15)

	ctx, cancel := context.WithCancel(context.Background())
	proposed := attendance.BulkSetStatus(sampleDay(), models.StatusPresent)

	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(ctx, proposed)
		done <- err
	}()
	<-committer.started

	assert.Equal(t, StateApplying, c.State(key))

	view, ok := c.View(key)
	require.True(t, ok)
	assert.True(t, view.Equal(proposed), "optimistic view is visible while applying")

	_, err := c.Commit(context.Background(), proposed)
	assert.ErrorIs(t, err, ErrCommitInFlight)

	assert.False(t, c.Store(sampleDay()), "fresh loads must not overwrite an applying view")

	// отмена после начала записи не прерывает ее
	cancel()
	assert.NoError(t, committer.lastCtx.Err())

	close(committer.release)
	require.NoError(t, <-done)

	assert.Equal(t, StateIdle, c.State(key))
	assert.Equal(t, 1, committer.callCount())
}

func TestMutationController_Discard(t *testing.T) {
	c := NewMutationController(&fakeCommitter{})
	key := KeyFor("10", jan15)

	c.Store(sampleDay())
	c.Discard(key)

	_, ok := c.View(key)
	assert.False(t, ok)
}

func TestMutationController_StoreRollupGeneration(t *testing.T) {
	c := NewMutationController(&fakeCommitter{})
	key := MonthKeyFor("10", jan15)
	days := attendance.BuildMonth(nil, 2024, time.January, jan15)

	gen := c.RollupGeneration(key)
	_, err := c.Commit(context.Background(), sampleDay())
	require.NoError(t, err)

	assert.False(t, c.StoreRollup(key, gen, days), "rollup read before a commit must not be cached")
	_, ok := c.Rollup(key)
	assert.False(t, ok)

	assert.True(t, c.StoreRollup(key, c.RollupGeneration(key), days))
	_, ok = c.Rollup(key)
	assert.True(t, ok)

	// другой месяц и другой класс не затрагиваются
	other := MonthKey{ClassID: "11", Year: 2024, Month: time.January}
	assert.True(t, c.StoreRollup(other, c.RollupGeneration(other), days))
}

func TestMutationController_StoreRollupWhileApplying(t *testing.T) {
	committer := &fakeCommitter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewMutationController(committer)
	key := MonthKeyFor("10", jan15)
	days := attendance.BuildMonth(nil, 2024, time.January, jan15)

	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(context.Background(), sampleDay())
		done <- err
	}()
	<-committer.started

	assert.False(t, c.StoreRollup(key, c.RollupGeneration(key), days))
	feb := MonthKey{ClassID: "10", Year: 2024, Month: time.February}
	assert.True(t, c.StoreRollup(feb, c.RollupGeneration(feb), days))

	close(committer.release)
	require.NoError(t, <-done)
	assert.True(t, c.StoreRollup(key, c.RollupGeneration(key), days))
}
