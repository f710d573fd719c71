package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentService struct {
	mu     sync.Mutex
	sweeps int
	err    error
}

func (f *fakePaymentService) ExpireStalePrepayments(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 2, f.err
}

func (f *fakePaymentService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestReconciler_Sweep(t *testing.T) {
	svc := &fakePaymentService{}
	r := NewReconciler(svc, nil, time.Minute)

	r.Sweep(context.Background())
	assert.Equal(t, 1, svc.count())

	// a failing sweep does not panic and the next one still runs
	svc.err = errors.New("db down")
	r.Sweep(context.Background())
	svc.err = nil
	r.Sweep(context.Background())
	assert.Equal(t, 3, svc.count())
}

func TestReconciler_StartStop(t *testing.T) {
	svc := &fakePaymentService{}
	r := NewReconciler(svc, nil, 50*time.Millisecond)

	require.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool { return svc.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	r.Stop()
	after := svc.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, svc.count())
}
