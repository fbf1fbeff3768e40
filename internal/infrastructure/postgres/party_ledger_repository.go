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

var _ repository.PartyLedgerRepository = (*PartyLedgerRepo)(nil)

const partyLedgerColumns = `id, business_id, party_id, party_name, party_type, opening_balance,
	opening_balance_type, credit_limit, credit_days, current_balance, current_balance_type,
	last_transaction_date, status, version, created_at, updated_at`

const ledgerTransactionColumns = `id, seq, date, type, reference_type, reference_id, reference_number,
	description, debit, credit, balance, balance_type, created_by, created_at`

// PartyLedgerRepo implementación de PartyLedgerRepository sobre PostgreSQL (usable con pool o tx).
type PartyLedgerRepo struct {
	q Querier
}

// NewPartyLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartyLedgerRepository(q Querier) *PartyLedgerRepo {
	return &PartyLedgerRepo{q: q}
}

// Create inserta el libro. ErrDuplicate si ya existe (negocio, contraparte).
func (r *PartyLedgerRepo) Create(ctx context.Context, l *entity.PartyLedger) error {
	query := `
		INSERT INTO party_ledgers (` + partyLedgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.BusinessID, l.PartyID, l.PartyName, string(l.PartyType),
		l.OpeningBalance, string(l.OpeningBalanceType), l.CreditLimit, l.CreditDays,
		l.CurrentBalance, string(l.CurrentBalanceType), l.LastTransactionDate,
		string(l.Status), l.Version, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: libro (%s, %s)", domain.ErrDuplicate, l.BusinessID, l.PartyID)
		}
		return fmt.Errorf("create party ledger: %w", err)
	}
	for i := range l.Transactions {
		if err := r.insertTransaction(ctx, l.ID, &l.Transactions[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene el libro con sus asientos. businessID vacío = sin restricción.
func (r *PartyLedgerRepo) GetByID(ctx context.Context, businessID, id string) (*entity.PartyLedger, error) {
	return r.getOne(ctx, `WHERE id = $1 AND ($2 = '' OR business_id = $2)`, "", id, businessID)
}

// GetByParty obtiene el libro por (negocio, contraparte).
func (r *PartyLedgerRepo) GetByParty(ctx context.Context, businessID, partyID string) (*entity.PartyLedger, error) {
	return r.getOne(ctx, `WHERE business_id = $1 AND party_id = $2`, "", businessID, partyID)
}

// GetForUpdate obtiene el libro y bloquea la fila (SELECT FOR UPDATE).
func (r *PartyLedgerRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.PartyLedger, error) {
	return r.getOne(ctx, `WHERE id = $1 AND ($2 = '' OR business_id = $2)`, "FOR UPDATE", id, businessID)
}

func (r *PartyLedgerRepo) getOne(ctx context.Context, where, lock string, args ...any) (*entity.PartyLedger, error) {
	query := `SELECT ` + partyLedgerColumns + ` FROM party_ledgers ` + where + ` ` + lock
	l, err := scanPartyLedger(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get party ledger: %w", err)
	}
	txs, err := r.ListTransactions(ctx, l.ID, repository.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	l.Transactions = txs
	return l, nil
}

// List lista libros (sin asientos), más recientes primero. Sin Status se excluyen los inactivos.
func (r *PartyLedgerRepo) List(ctx context.Context, filter repository.PartyLedgerFilter) ([]*entity.PartyLedger, error) {
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
	if filter.PartyType != "" {
		add("party_type = $%d", string(filter.PartyType))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	} else {
		add("status <> $%d", string(entity.LedgerInactive))
	}

	query := `SELECT ` + partyLedgerColumns + ` FROM party_ledgers WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list party ledgers: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.PartyLedger, 0)
	for rows.Next() {
		l, err := scanPartyLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party ledger: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpdateDetails actualiza datos y saldos del libro si la versión coincide.
func (r *PartyLedgerRepo) UpdateDetails(ctx context.Context, l *entity.PartyLedger) error {
	query := `
		UPDATE party_ledgers SET
			party_name = $1, opening_balance = $2, opening_balance_type = $3, credit_limit = $4,
			credit_days = $5, current_balance = $6, current_balance_type = $7, status = $8,
			updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11`
	tag, err := r.q.Exec(ctx, query,
		l.PartyName, l.OpeningBalance, string(l.OpeningBalanceType), l.CreditLimit,
		l.CreditDays, l.CurrentBalance, string(l.CurrentBalanceType), string(l.Status),
		l.UpdatedAt, l.ID, l.Version,
	)
	if err != nil {
		return fmt.Errorf("update party ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: libro %s (versión %d)", domain.ErrConcurrency, l.ID, l.Version)
	}
	l.Version++
	return nil
}

// AppendTransaction actualiza los saldos con control de versión e inserta el último asiento.
func (r *PartyLedgerRepo) AppendTransaction(ctx context.Context, l *entity.PartyLedger) error {
	last := l.LastTransaction()
	if last == nil {
		return fmt.Errorf("%w: el libro %s no tiene asiento para persistir", domain.ErrInvalidInput, l.ID)
	}
	query := `
		UPDATE party_ledgers SET
			current_balance = $1, current_balance_type = $2, last_transaction_date = $3,
			updated_at = $4, version = version + 1
		WHERE id = $5 AND version = $6`
	tag, err := r.q.Exec(ctx, query,
		l.CurrentBalance, string(l.CurrentBalanceType), l.LastTransactionDate,
		l.UpdatedAt, l.ID, l.Version,
	)
	if err != nil {
		return fmt.Errorf("update party ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: libro %s (versión %d)", domain.ErrConcurrency, l.ID, l.Version)
	}
	if err := r.insertTransaction(ctx, l.ID, last); err != nil {
		return err
	}
	l.Version++
	return nil
}

func (r *PartyLedgerRepo) insertTransaction(ctx context.Context, ledgerID string, t *entity.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions (ledger_id, ` + ledgerTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		ledgerID, t.ID, t.Seq, t.Date, string(t.Type),
		string(t.ReferenceType), t.ReferenceID, t.ReferenceNumber, t.Description,
		t.Debit, t.Credit, t.Balance, string(t.BalanceType), t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "uq_ledger_transactions_ledger_seq" {
			return fmt.Errorf("%w: asiento %d ya existe en el libro %s", domain.ErrConcurrency, t.Seq, ledgerID)
		}
		return fmt.Errorf("create ledger transaction: %w", err)
	}
	return nil
}

// ListTransactions lista asientos en orden de inserción.
func (r *PartyLedgerRepo) ListTransactions(ctx context.Context, ledgerID string, filter repository.TransactionFilter) ([]entity.LedgerTransaction, error) {
	query := `SELECT ` + ledgerTransactionColumns + ` FROM ledger_transactions WHERE ledger_id = $1`
	args := []any{ledgerID}
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
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer rows.Close()
	list := make([]entity.LedgerTransaction, 0)
	for rows.Next() {
		var (
			t                         entity.LedgerTransaction
			typ, refType, balanceType string
		)
		if err := rows.Scan(&t.ID, &t.Seq, &t.Date, &typ, &refType, &t.ReferenceID, &t.ReferenceNumber,
			&t.Description, &t.Debit, &t.Credit, &t.Balance, &balanceType, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		t.Type = entity.TransactionType(typ)
		t.ReferenceType = entity.LedgerReferenceType(refType)
		t.BalanceType = entity.BalanceType(balanceType)
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanPartyLedger(row scanner) (*entity.PartyLedger, error) {
	var (
		l                                           entity.PartyLedger
		partyType, openingType, currentType, status string
	)
	err := row.Scan(
		&l.ID, &l.BusinessID, &l.PartyID, &l.PartyName, &partyType,
		&l.OpeningBalance, &openingType, &l.CreditLimit, &l.CreditDays,
		&l.CurrentBalance, &currentType, &l.LastTransactionDate,
		&status, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.PartyType = entity.PartyType(partyType)
	l.OpeningBalanceType = entity.BalanceType(openingType)
	l.CurrentBalanceType = entity.BalanceType(currentType)
	l.Status = entity.LedgerStatus(status)
	return &l, nil
}
