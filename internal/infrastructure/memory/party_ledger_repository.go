package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

var _ repository.PartyLedgerRepository = (*PartyLedgerRepo)(nil)

// PartyLedgerRepo implementación en memoria de PartyLedgerRepository.
type PartyLedgerRepo struct {
	s *Store
}

// Create persiste el libro. ErrDuplicate si ya existe (negocio, contraparte).
func (r *PartyLedgerRepo) Create(_ context.Context, l *entity.PartyLedger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := key(l.BusinessID, l.PartyID)
	if _, ok := r.s.ledgerByParty[k]; ok {
		return fmt.Errorf("%w: libro (%s, %s)", domain.ErrDuplicate, l.BusinessID, l.PartyID)
	}
	if _, ok := r.s.ledgers[l.ID]; ok {
		return fmt.Errorf("%w: libro %s", domain.ErrDuplicate, l.ID)
	}
	r.s.ledgers[l.ID] = l.Clone()
	r.s.ledgerByParty[k] = l.ID
	return nil
}

// GetByID obtiene el libro por id, restringido al negocio si businessID no es vacío.
func (r *PartyLedgerRepo) GetByID(_ context.Context, businessID, id string) (*entity.PartyLedger, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.ledgers[id]
	if !ok || (businessID != "" && l.BusinessID != businessID) {
		return nil, nil
	}
	return l.Clone(), nil
}

// GetByParty obtiene el libro por (negocio, contraparte).
func (r *PartyLedgerRepo) GetByParty(ctx context.Context, businessID, partyID string) (*entity.PartyLedger, error) {
	r.s.mu.RLock()
	id, ok := r.s.ledgerByParty[key(businessID, partyID)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, businessID, id)
}

// GetForUpdate igual que GetByID; la exclusión la da la versión al escribir.
func (r *PartyLedgerRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.PartyLedger, error) {
	return r.GetByID(ctx, businessID, id)
}

// List lista libros sin asientos, más recientes primero. Sin Status se excluyen los inactivos.
func (r *PartyLedgerRepo) List(_ context.Context, filter repository.PartyLedgerFilter) ([]*entity.PartyLedger, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.PartyLedger, 0)
	for _, l := range r.s.ledgers {
		if filter.BusinessID != "" && l.BusinessID != filter.BusinessID {
			continue
		}
		if filter.PartyType != "" && l.PartyType != filter.PartyType {
			continue
		}
		if filter.Status != "" {
			if l.Status != filter.Status {
				continue
			}
		} else if l.Status == entity.LedgerInactive {
			continue
		}
		c := l.Clone()
		c.Transactions = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return repository.Page(out, filter.Limit, filter.Offset), nil
}

// UpdateDetails reemplaza los datos del libro (sin asientos) si la versión coincide.
func (r *PartyLedgerRepo) UpdateDetails(_ context.Context, l *entity.PartyLedger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, err := r.checkVersion(l)
	if err != nil {
		return err
	}
	next := l.Clone()
	next.Transactions = stored.Clone().Transactions
	next.Version = stored.Version + 1
	r.s.ledgers[l.ID] = next
	l.Version = next.Version
	return nil
}

// AppendTransaction persiste el libro con su nuevo último asiento si la versión coincide.
func (r *PartyLedgerRepo) AppendTransaction(_ context.Context, l *entity.PartyLedger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, err := r.checkVersion(l)
	if err != nil {
		return err
	}
	if len(l.Transactions) != len(stored.Transactions)+1 {
		return fmt.Errorf("%w: historial desalineado en libro %s", domain.ErrConcurrency, l.ID)
	}
	next := l.Clone()
	next.Version = stored.Version + 1
	r.s.ledgers[l.ID] = next
	l.Version = next.Version
	return nil
}

func (r *PartyLedgerRepo) checkVersion(l *entity.PartyLedger) (*entity.PartyLedger, error) {
	stored, ok := r.s.ledgers[l.ID]
	if !ok {
		return nil, fmt.Errorf("%w: libro %s", domain.ErrNotFound, l.ID)
	}
	if stored.Version != l.Version {
		return nil, fmt.Errorf("%w: libro %s (versión %d, esperada %d)", domain.ErrConcurrency, l.ID, stored.Version, l.Version)
	}
	return stored, nil
}

// ListTransactions devuelve asientos filtrados, del más antiguo al más reciente.
func (r *PartyLedgerRepo) ListTransactions(_ context.Context, ledgerID string, filter repository.TransactionFilter) ([]entity.LedgerTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.ledgers[ledgerID]
	if !ok {
		return []entity.LedgerTransaction{}, nil
	}
	out := make([]entity.LedgerTransaction, 0, len(l.Transactions))
	for _, t := range l.Transactions {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			continue
		}
		out = append(out, t)
	}
	return repository.Page(out, filter.Limit, filter.Offset), nil
}
