package cryptox_test

import (
	"sync"
	"testing"

	"github.com/majesticmotors/dealerauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGetPepperConcurrentFirstUse(t *testing.T) {
	// Many goroutines racing the first load must all observe the same
	// pepper; a divergence here would leave password hashes that never
	// verify again.
	const workers = 16

	results := make([]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = cryptox.GetPepper()
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, results[0])
	for i := 1; i < workers; i++ {
		require.Equal(t, results[0], results[i])
	}

	// Later calls keep returning the same value.
	require.Equal(t, results[0], cryptox.GetPepper())
}
