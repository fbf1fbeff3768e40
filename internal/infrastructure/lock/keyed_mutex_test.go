package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializaMismaClave(t *testing.T) {
	k := NewKeyedMutex(0)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "stock:acc-1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "nunca debe haber dos dueños de la misma clave")
	assert.Zero(t, k.size(), "las claves liberadas no deben quedar en el mapa")
}

func TestKeyedMutex_ClavesDistintasNoSeBloquean(t *testing.T) {
	k := NewKeyedMutex(50 * time.Millisecond)
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "stock:a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := k.Lock(ctx, "ledger:a")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_EsperaAgotadaDevuelveConflicto(t *testing.T) {
	k := NewKeyedMutex(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := k.Lock(ctx, "stock:acc-1")
	require.NoError(t, err)

	_, err = k.Lock(ctx, "stock:acc-1")
	assert.ErrorIs(t, err, domain.ErrConcurrency)

	unlock()
	unlock() // liberar dos veces no debe bloquear ni entrar en pánico

	unlock2, err := k.Lock(ctx, "stock:acc-1")
	require.NoError(t, err)
	unlock2()
	assert.Zero(t, k.size())
}

func TestKeyedMutex_ContextoCancelado(t *testing.T) {
	k := NewKeyedMutex(0)
	unlock, err := k.Lock(context.Background(), "ledger:l-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "ledger:l-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
