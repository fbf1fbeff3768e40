package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/reco-api/internal/application/ports"
	"github.com/jhoicas/reco-api/internal/domain"
)

var _ ports.AccountLocker = (*KeyedMutex)(nil)

// KeyedMutex exclusión mutua por clave dentro del proceso. Las claves sin uso se liberan.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex crea el locker. wait <= 0 espera hasta que termine el contexto.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot), wait: wait}
}

// Lock obtiene la clave. ErrConcurrency si no se obtiene dentro de la espera configurada.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	var timeout <-chan time.Time
	if k.wait > 0 {
		t := time.NewTimer(k.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				k.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	case <-timeout:
		k.release(key, s)
		return nil, fmt.Errorf("%w: clave %s ocupada", domain.ErrConcurrency, key)
	}
}

func (k *KeyedMutex) release(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// size cantidad de claves en uso (tests).
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
