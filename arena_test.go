package boxkalman

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStateArena_AllocateGetRelease(t *testing.T) {
	arena := NewStateArena()
	require.Equal(t, 0, arena.Len())
	require.Nil(t, arena.Get("track_1"))

	s := arena.Allocate("track_1")
	require.NotNil(t, s)
	require.Equal(t, 1, arena.Len())
	require.Same(t, s, arena.Get("track_1"))

	arena.Release("track_1")
	require.Equal(t, 0, arena.Len())
	require.Nil(t, arena.Get("track_1"))
}

func TestStateArena_ReallocateReplacesState(t *testing.T) {
	arena := NewStateArena()

	first := arena.Allocate("track_1")
	r := mat.NewSymDense(4, nil)
	r.SetSym(0, 0, 7)
	first.SetMeasurementNoise(r)

	second := arena.Allocate("track_1")
	require.NotSame(t, first, second)
	require.Zero(t, second.MeasurementNoise().At(0, 0),
		"a re-initiated track must not inherit old adaptive state")
}

func TestStateArena_StatesAreTrackPrivate(t *testing.T) {
	f := newTestFilter()
	arena := NewStateArena()

	a := arena.Allocate("track_a")
	b := arena.Allocate("track_b")

	mean, cov := f.Initiate(mat.NewVecDense(4, []float64{100, 100, 1.0, 50}))
	mean, cov = f.Predict(a, mean, cov)
	_, _, err := f.Update(a, mean, cov, mat.NewVecDense(4, []float64{120, 90, 1.0, 52}), 0.5)
	require.NoError(t, err)

	require.NotZero(t, mat.Trace(a.ProcessNoise()))
	require.Zero(t, mat.Trace(b.ProcessNoise()),
		"updating one track must not touch another track's noise state")
}

func TestStateArena_ConcurrentAccess(t *testing.T) {
	arena := NewStateArena()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("track_%d", i)
			arena.Allocate(id)
			arena.Get(id)
			arena.Len()
			arena.Release(id)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 0, arena.Len())
}
