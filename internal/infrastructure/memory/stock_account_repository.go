package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

var _ repository.StockAccountRepository = (*StockAccountRepo)(nil)

// StockAccountRepo implementación en memoria de StockAccountRepository.
type StockAccountRepo struct {
	s *Store
}

// Create persiste la cuenta con sus movimientos. ErrDuplicate si ya existe (negocio, producto).
func (r *StockAccountRepo) Create(_ context.Context, acc *entity.StockAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := key(acc.BusinessID, acc.ProductID)
	if _, ok := r.s.accountByParty[k]; ok {
		return fmt.Errorf("%w: cuenta de stock (%s, %s)", domain.ErrDuplicate, acc.BusinessID, acc.ProductID)
	}
	if _, ok := r.s.accounts[acc.ID]; ok {
		return fmt.Errorf("%w: cuenta de stock %s", domain.ErrDuplicate, acc.ID)
	}
	r.s.accounts[acc.ID] = acc.Clone()
	r.s.accountByParty[k] = acc.ID
	return nil
}

// GetByID obtiene la cuenta por id, restringida al negocio si businessID no es vacío.
func (r *StockAccountRepo) GetByID(_ context.Context, businessID, id string) (*entity.StockAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[id]
	if !ok || (businessID != "" && acc.BusinessID != businessID) {
		return nil, nil
	}
	return acc.Clone(), nil
}

// GetByProduct obtiene la cuenta por (negocio, producto).
func (r *StockAccountRepo) GetByProduct(ctx context.Context, businessID, productID string) (*entity.StockAccount, error) {
	r.s.mu.RLock()
	id, ok := r.s.accountByParty[key(businessID, productID)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, businessID, id)
}

// GetForUpdate igual que GetByID; la exclusión la da la versión en AppendMovement/UpdateDetails.
func (r *StockAccountRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.StockAccount, error) {
	return r.GetByID(ctx, businessID, id)
}

// List lista cuentas sin movimientos, más recientes primero.
func (r *StockAccountRepo) List(_ context.Context, filter repository.StockAccountFilter) ([]*entity.StockAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockAccount, 0)
	for _, acc := range r.s.accounts {
		if !matchesAccount(acc, filter) {
			continue
		}
		c := acc.Clone()
		c.Movements = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return repository.Page(out, filter.Limit, filter.Offset), nil
}

func matchesAccount(acc *entity.StockAccount, f repository.StockAccountFilter) bool {
	if f.BusinessID != "" && acc.BusinessID != f.BusinessID {
		return false
	}
	if f.ProductID != "" && acc.ProductID != f.ProductID {
		return false
	}
	if f.Status != "" && acc.Status != f.Status {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, st := range f.Statuses {
			if acc.Status == st {
				return true
			}
		}
		return false
	}
	return true
}

// UpdateDetails reemplaza los campos descriptivos si la versión coincide.
func (r *StockAccountRepo) UpdateDetails(_ context.Context, acc *entity.StockAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, err := r.checkVersion(acc)
	if err != nil {
		return err
	}
	next := stored.Clone()
	next.ProductName = acc.ProductName
	next.SKU = acc.SKU
	next.Unit = acc.Unit
	next.ReorderLevel = acc.ReorderLevel
	next.MaxStockLevel = acc.MaxStockLevel
	next.Location = acc.Location
	next.ValuationMethod = acc.ValuationMethod
	next.Status = acc.Status
	next.UpdatedAt = acc.UpdatedAt
	next.Version++
	r.s.accounts[acc.ID] = next.Clone()
	acc.Version = next.Version
	return nil
}

// AppendMovement persiste la cuenta con su nuevo último movimiento si la versión coincide.
func (r *StockAccountRepo) AppendMovement(_ context.Context, acc *entity.StockAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, err := r.checkVersion(acc)
	if err != nil {
		return err
	}
	if len(acc.Movements) != len(stored.Movements)+1 {
		return fmt.Errorf("%w: historial desalineado en cuenta %s", domain.ErrConcurrency, acc.ID)
	}
	next := acc.Clone()
	next.Version = stored.Version + 1
	r.s.accounts[acc.ID] = next
	acc.Version = next.Version
	return nil
}

func (r *StockAccountRepo) checkVersion(acc *entity.StockAccount) (*entity.StockAccount, error) {
	stored, ok := r.s.accounts[acc.ID]
	if !ok {
		return nil, fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, acc.ID)
	}
	if stored.Version != acc.Version {
		return nil, fmt.Errorf("%w: cuenta %s (versión %d, esperada %d)", domain.ErrConcurrency, acc.ID, stored.Version, acc.Version)
	}
	return stored, nil
}

// ListMovements devuelve movimientos filtrados, del más antiguo al más reciente.
func (r *StockAccountRepo) ListMovements(_ context.Context, accountID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[accountID]
	if !ok {
		return []entity.StockMovement{}, nil
	}
	out := make([]entity.StockMovement, 0, len(acc.Movements))
	for _, m := range acc.Movements {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.From != nil && m.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.Date.After(*filter.To) {
			continue
		}
		if m.Rate != nil {
			rate := *m.Rate
			m.Rate = &rate
		}
		out = append(out, m)
	}
	return repository.Page(out, filter.Limit, filter.Offset), nil
}

// Delete elimina la cuenta con su historial.
func (r *StockAccountRepo) Delete(_ context.Context, businessID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok || (businessID != "" && acc.BusinessID != businessID) {
		return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, id)
	}
	delete(r.s.accounts, id)
	delete(r.s.accountByParty, key(acc.BusinessID, acc.ProductID))
	return nil
}
