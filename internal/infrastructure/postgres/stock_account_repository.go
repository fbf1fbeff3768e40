package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
)

var _ repository.StockAccountRepository = (*StockAccountRepo)(nil)

const stockAccountColumns = `id, business_id, product_id, product_name, sku, unit, current_stock, reorder_level,
	max_stock_level, warehouse, rack, bin, valuation_method, average_rate, total_value,
	last_purchase_date, last_purchase_rate, last_sale_date, last_sale_rate, status, version,
	created_at, updated_at`

const stockMovementColumns = `id, seq, date, type, reference_type, reference_id, reference_number,
	quantity, previous_stock, new_stock, rate, total_value, remarks, created_by, created_at`

// StockAccountRepo implementación de StockAccountRepository sobre PostgreSQL (usable con pool o tx).
// AppendMovement y Create hacen varias sentencias: usarlos dentro de TxRunner.
type StockAccountRepo struct {
	q Querier
}

// NewStockAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAccountRepository(q Querier) *StockAccountRepo {
	return &StockAccountRepo{q: q}
}

// Create inserta la cuenta y sus movimientos iniciales.
func (r *StockAccountRepo) Create(ctx context.Context, acc *entity.StockAccount) error {
	query := `
		INSERT INTO stock_accounts (` + stockAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(ctx, query,
		acc.ID, acc.BusinessID, acc.ProductID, acc.ProductName, acc.SKU, acc.Unit,
		acc.CurrentStock, acc.ReorderLevel, acc.MaxStockLevel,
		acc.Location.Warehouse, acc.Location.Rack, acc.Location.Bin,
		string(acc.ValuationMethod), acc.AverageRate, acc.TotalValue,
		acc.LastPurchaseDate, acc.LastPurchaseRate, acc.LastSaleDate, acc.LastSaleRate,
		string(acc.Status), acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cuenta de stock (%s, %s)", domain.ErrDuplicate, acc.BusinessID, acc.ProductID)
		}
		return fmt.Errorf("create stock account: %w", err)
	}
	for i := range acc.Movements {
		if err := r.insertMovement(ctx, acc.ID, &acc.Movements[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene la cuenta con sus movimientos. businessID vacío = sin restricción.
func (r *StockAccountRepo) GetByID(ctx context.Context, businessID, id string) (*entity.StockAccount, error) {
	return r.getOne(ctx, `WHERE id = $1 AND ($2 = '' OR business_id = $2)`, "", id, businessID)
}

// GetByProduct obtiene la cuenta por (negocio, producto).
func (r *StockAccountRepo) GetByProduct(ctx context.Context, businessID, productID string) (*entity.StockAccount, error) {
	return r.getOne(ctx, `WHERE business_id = $1 AND product_id = $2`, "", businessID, productID)
}

// GetForUpdate obtiene la cuenta y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *StockAccountRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.StockAccount, error) {
	return r.getOne(ctx, `WHERE id = $1 AND ($2 = '' OR business_id = $2)`, "FOR UPDATE", id, businessID)
}

func (r *StockAccountRepo) getOne(ctx context.Context, where, lock string, args ...any) (*entity.StockAccount, error) {
	query := `SELECT ` + stockAccountColumns + ` FROM stock_accounts ` + where + ` ` + lock
	acc, err := scanStockAccount(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock account: %w", err)
	}
	movements, err := r.ListMovements(ctx, acc.ID, repository.MovementFilter{})
	if err != nil {
		return nil, err
	}
	acc.Movements = movements
	return acc, nil
}

// List lista cuentas (sin movimientos) ordenadas por última actualización.
func (r *StockAccountRepo) List(ctx context.Context, filter repository.StockAccountFilter) ([]*entity.StockAccount, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.BusinessID != "" {
		add("business_id = $%d", filter.BusinessID)
	}
	if filter.ProductID != "" {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		add("status = ANY($%d)", statuses)
	}

	query := `SELECT ` + stockAccountColumns + ` FROM stock_accounts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock accounts: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockAccount, 0)
	for rows.Next() {
		acc, err := scanStockAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock account: %w", err)
		}
		list = append(list, acc)
	}
	return list, rows.Err()
}

// UpdateDetails actualiza campos descriptivos y estado si la versión coincide.
func (r *StockAccountRepo) UpdateDetails(ctx context.Context, acc *entity.StockAccount) error {
	query := `
		UPDATE stock_accounts SET
			product_name = $1, sku = $2, unit = $3, reorder_level = $4, max_stock_level = $5,
			warehouse = $6, rack = $7, bin = $8, valuation_method = $9, status = $10,
			updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13`
	tag, err := r.q.Exec(ctx, query,
		acc.ProductName, acc.SKU, acc.Unit, acc.ReorderLevel, acc.MaxStockLevel,
		acc.Location.Warehouse, acc.Location.Rack, acc.Location.Bin,
		string(acc.ValuationMethod), string(acc.Status), acc.UpdatedAt,
		acc.ID, acc.Version,
	)
	if err != nil {
		return fmt.Errorf("update stock account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta %s (versión %d)", domain.ErrConcurrency, acc.ID, acc.Version)
	}
	acc.Version++
	return nil
}

// AppendMovement actualiza los campos derivados con control de versión e inserta el último movimiento.
func (r *StockAccountRepo) AppendMovement(ctx context.Context, acc *entity.StockAccount) error {
	last := acc.LastMovement()
	if last == nil {
		return fmt.Errorf("%w: la cuenta %s no tiene movimiento para persistir", domain.ErrInvalidInput, acc.ID)
	}
	query := `
		UPDATE stock_accounts SET
			current_stock = $1, average_rate = $2, total_value = $3,
			last_purchase_date = $4, last_purchase_rate = $5, last_sale_date = $6, last_sale_rate = $7,
			status = $8, updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11`
	tag, err := r.q.Exec(ctx, query,
		acc.CurrentStock, acc.AverageRate, acc.TotalValue,
		acc.LastPurchaseDate, acc.LastPurchaseRate, acc.LastSaleDate, acc.LastSaleRate,
		string(acc.Status), acc.UpdatedAt,
		acc.ID, acc.Version,
	)
	if err != nil {
		return fmt.Errorf("update stock account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta %s (versión %d)", domain.ErrConcurrency, acc.ID, acc.Version)
	}
	if err := r.insertMovement(ctx, acc.ID, last); err != nil {
		return err
	}
	acc.Version++
	return nil
}

func (r *StockAccountRepo) insertMovement(ctx context.Context, accountID string, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (account_id, ` + stockMovementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		accountID, m.ID, m.Seq, m.Date, string(m.Type),
		string(m.ReferenceType), m.ReferenceID, m.ReferenceNumber,
		m.Quantity, m.PreviousStock, m.NewStock, m.Rate, m.TotalValue,
		m.Remarks, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "uq_stock_movements_account_seq" {
			return fmt.Errorf("%w: movimiento %d ya existe en la cuenta %s", domain.ErrConcurrency, m.Seq, accountID)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListMovements lista movimientos en orden de inserción (seq ascendente).
func (r *StockAccountRepo) ListMovements(ctx context.Context, accountID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + ` FROM stock_movements WHERE account_id = $1`
	args := []any{accountID}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY seq"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		var typ, refType string
		if err := rows.Scan(&m.ID, &m.Seq, &m.Date, &typ, &refType, &m.ReferenceID, &m.ReferenceNumber,
			&m.Quantity, &m.PreviousStock, &m.NewStock, &m.Rate, &m.TotalValue,
			&m.Remarks, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		m.ReferenceType = entity.ReferenceType(refType)
		list = append(list, m)
	}
	return list, rows.Err()
}

// Delete elimina la cuenta; los movimientos se borran en cascada.
func (r *StockAccountRepo) Delete(ctx context.Context, businessID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_accounts WHERE id = $1 AND ($2 = '' OR business_id = $2)`, id, businessID)
	if err != nil {
		return fmt.Errorf("delete stock account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanStockAccount(row scanner) (*entity.StockAccount, error) {
	var (
		a              entity.StockAccount
		method, status string
	)
	err := row.Scan(
		&a.ID, &a.BusinessID, &a.ProductID, &a.ProductName, &a.SKU, &a.Unit,
		&a.CurrentStock, &a.ReorderLevel, &a.MaxStockLevel,
		&a.Location.Warehouse, &a.Location.Rack, &a.Location.Bin,
		&method, &a.AverageRate, &a.TotalValue,
		&a.LastPurchaseDate, &a.LastPurchaseRate, &a.LastSaleDate, &a.LastSaleRate,
		&status, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ValuationMethod = entity.ValuationMethod(method)
	a.Status = entity.StockStatus(status)
	return &a, nil
}

// paginate agrega LIMIT/OFFSET cuando limit > 0.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	} else if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
