package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/reco-api/internal/domain"
	"github.com/jhoicas/reco-api/internal/domain/entity"
	"github.com/jhoicas/reco-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repository.PartyLedgerRepository = (*PartyLedgerRepo)(nil)

type partyLedgerDoc struct {
	ID                  string                 `bson:"_id"`
	BusinessID          string                 `bson:"business_id"`
	PartyID             string                 `bson:"party_id"`
	PartyName           string                 `bson:"party_name"`
	PartyType           string                 `bson:"party_type"`
	OpeningBalance      decimal.Decimal        `bson:"opening_balance"`
	OpeningBalanceType  string                 `bson:"opening_balance_type"`
	CreditLimit         decimal.Decimal        `bson:"credit_limit"`
	CreditDays          int                    `bson:"credit_days"`
	CurrentBalance      decimal.Decimal        `bson:"current_balance"`
	CurrentBalanceType  string                 `bson:"current_balance_type"`
	LastTransactionDate *time.Time             `bson:"last_transaction_date"`
	Status              string                 `bson:"status"`
	Version             int64                  `bson:"version"`
	Transactions        []ledgerTransactionDoc `bson:"transactions"`
	CreatedAt           time.Time              `bson:"created_at"`
	UpdatedAt           time.Time              `bson:"updated_at"`
}

type ledgerTransactionDoc struct {
	ID              string          `bson:"id"`
	Seq             int             `bson:"seq"`
	Date            time.Time       `bson:"date"`
	Type            string          `bson:"type"`
	ReferenceType   string          `bson:"reference_type"`
	ReferenceID     string          `bson:"reference_id"`
	ReferenceNumber string          `bson:"reference_number"`
	Description     string          `bson:"description"`
	Debit           decimal.Decimal `bson:"debit"`
	Credit          decimal.Decimal `bson:"credit"`
	Balance         decimal.Decimal `bson:"balance"`
	BalanceType     string          `bson:"balance_type"`
	CreatedBy       string          `bson:"created_by"`
	CreatedAt       time.Time       `bson:"created_at"`
}

// PartyLedgerRepo implementación de PartyLedgerRepository sobre MongoDB (asientos embebidos).
type PartyLedgerRepo struct {
	col *mongo.Collection
}

// NewPartyLedgerRepository construye el adaptador sobre la base dada.
func NewPartyLedgerRepository(db *mongo.Database) *PartyLedgerRepo {
	return &PartyLedgerRepo{col: db.Collection(partyLedgersCollection)}
}

// Create inserta el libro. ErrDuplicate si ya existe (negocio, contraparte).
func (r *PartyLedgerRepo) Create(ctx context.Context, l *entity.PartyLedger) error {
	if _, err := r.col.InsertOne(ctx, toPartyLedgerDoc(l)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: libro (%s, %s)", domain.ErrDuplicate, l.BusinessID, l.PartyID)
		}
		return fmt.Errorf("create party ledger: %w", err)
	}
	return nil
}

// GetByID obtiene el libro con sus asientos. businessID vacío = sin restricción.
func (r *PartyLedgerRepo) GetByID(ctx context.Context, businessID, id string) (*entity.PartyLedger, error) {
	filter := bson.M{"_id": id}
	if businessID != "" {
		filter["business_id"] = businessID
	}
	return r.findOne(ctx, filter)
}

// GetByParty obtiene el libro por (negocio, contraparte).
func (r *PartyLedgerRepo) GetByParty(ctx context.Context, businessID, partyID string) (*entity.PartyLedger, error) {
	return r.findOne(ctx, bson.M{"business_id": businessID, "party_id": partyID})
}

// GetForUpdate igual que GetByID.
func (r *PartyLedgerRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.PartyLedger, error) {
	return r.GetByID(ctx, businessID, id)
}

func (r *PartyLedgerRepo) findOne(ctx context.Context, filter bson.M) (*entity.PartyLedger, error) {
	var doc partyLedgerDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get party ledger: %w", err)
	}
	return doc.toEntity(), nil
}

// List lista libros (sin asientos), más recientes primero. Sin Status se excluyen los inactivos.
func (r *PartyLedgerRepo) List(ctx context.Context, filter repository.PartyLedgerFilter) ([]*entity.PartyLedger, error) {
	q := bson.M{}
	if filter.BusinessID != "" {
		q["business_id"] = filter.BusinessID
	}
	if filter.PartyType != "" {
		q["party_type"] = string(filter.PartyType)
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	} else {
		q["status"] = bson.M{"$ne": string(entity.LedgerInactive)}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"transactions": 0})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list party ledgers: %w", err)
	}
	defer cur.Close(ctx)
	list := make([]*entity.PartyLedger, 0)
	for cur.Next(ctx) {
		var doc partyLedgerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode party ledger: %w", err)
		}
		list = append(list, doc.toEntity())
	}
	return list, cur.Err()
}

// UpdateDetails actualiza datos y saldos del libro si la versión coincide. Los asientos no se tocan.
func (r *PartyLedgerRepo) UpdateDetails(ctx context.Context, l *entity.PartyLedger) error {
	update := bson.M{
		"$set": bson.M{
			"party_name":           l.PartyName,
			"opening_balance":      l.OpeningBalance,
			"opening_balance_type": string(l.OpeningBalanceType),
			"credit_limit":         l.CreditLimit,
			"credit_days":          l.CreditDays,
			"current_balance":      l.CurrentBalance,
			"current_balance_type": string(l.CurrentBalanceType),
			"status":               string(l.Status),
			"updated_at":           l.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	return r.updateVersioned(ctx, l, bson.M{"_id": l.ID, "version": l.Version}, update)
}

// AppendTransaction agrega el último asiento y los saldos derivados con control de versión.
func (r *PartyLedgerRepo) AppendTransaction(ctx context.Context, l *entity.PartyLedger) error {
	last := l.LastTransaction()
	if last == nil {
		return fmt.Errorf("%w: el libro %s no tiene asiento para persistir", domain.ErrInvalidInput, l.ID)
	}
	filter := bson.M{
		"_id":          l.ID,
		"version":      l.Version,
		"transactions": bson.M{"$size": len(l.Transactions) - 1},
	}
	update := bson.M{
		"$set": bson.M{
			"current_balance":       l.CurrentBalance,
			"current_balance_type":  string(l.CurrentBalanceType),
			"last_transaction_date": l.LastTransactionDate,
			"updated_at":            l.UpdatedAt,
		},
		"$push": bson.M{"transactions": toLedgerTransactionDoc(*last)},
		"$inc":  bson.M{"version": 1},
	}
	return r.updateVersioned(ctx, l, filter, update)
}

func (r *PartyLedgerRepo) updateVersioned(ctx context.Context, l *entity.PartyLedger, filter, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update party ledger: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": l.ID})
		if err != nil {
			return fmt.Errorf("update party ledger: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: libro %s", domain.ErrNotFound, l.ID)
		}
		return fmt.Errorf("%w: libro %s (versión %d)", domain.ErrConcurrency, l.ID, l.Version)
	}
	l.Version++
	return nil
}

// ListTransactions lista asientos en orden de inserción.
func (r *PartyLedgerRepo) ListTransactions(ctx context.Context, ledgerID string, filter repository.TransactionFilter) ([]entity.LedgerTransaction, error) {
	var doc partyLedgerDoc
	opts := options.FindOne().SetProjection(bson.M{"transactions": 1})
	if err := r.col.FindOne(ctx, bson.M{"_id": ledgerID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []entity.LedgerTransaction{}, nil
		}
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	out := make([]entity.LedgerTransaction, 0, len(doc.Transactions))
	for _, t := range doc.Transactions {
		if filter.Type != "" && t.Type != string(filter.Type) {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			continue
		}
		out = append(out, t.toEntity())
	}
	return repository.Page(out, filter.Limit, filter.Offset), nil
}

func toPartyLedgerDoc(l *entity.PartyLedger) partyLedgerDoc {
	doc := partyLedgerDoc{
		ID:                  l.ID,
		BusinessID:          l.BusinessID,
		PartyID:             l.PartyID,
		PartyName:           l.PartyName,
		PartyType:           string(l.PartyType),
		OpeningBalance:      l.OpeningBalance,
		OpeningBalanceType:  string(l.OpeningBalanceType),
		CreditLimit:         l.CreditLimit,
		CreditDays:          l.CreditDays,
		CurrentBalance:      l.CurrentBalance,
		CurrentBalanceType:  string(l.CurrentBalanceType),
		LastTransactionDate: l.LastTransactionDate,
		Status:              string(l.Status),
		Version:             l.Version,
		Transactions:        make([]ledgerTransactionDoc, 0, len(l.Transactions)),
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	for _, t := range l.Transactions {
		doc.Transactions = append(doc.Transactions, toLedgerTransactionDoc(t))
	}
	return doc
}

func toLedgerTransactionDoc(t entity.LedgerTransaction) ledgerTransactionDoc {
	return ledgerTransactionDoc{
		ID:              t.ID,
		Seq:             t.Seq,
		Date:            t.Date,
		Type:            string(t.Type),
		ReferenceType:   string(t.ReferenceType),
		ReferenceID:     t.ReferenceID,
		ReferenceNumber: t.ReferenceNumber,
		Description:     t.Description,
		Debit:           t.Debit,
		Credit:          t.Credit,
		Balance:         t.Balance,
		BalanceType:     string(t.BalanceType),
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}

func (d partyLedgerDoc) toEntity() *entity.PartyLedger {
	l := &entity.PartyLedger{
		ID:                  d.ID,
		BusinessID:          d.BusinessID,
		PartyID:             d.PartyID,
		PartyName:           d.PartyName,
		PartyType:           entity.PartyType(d.PartyType),
		OpeningBalance:      d.OpeningBalance,
		OpeningBalanceType:  entity.BalanceType(d.OpeningBalanceType),
		CreditLimit:         d.CreditLimit,
		CreditDays:          d.CreditDays,
		CurrentBalance:      d.CurrentBalance,
		CurrentBalanceType:  entity.BalanceType(d.CurrentBalanceType),
		LastTransactionDate: d.LastTransactionDate,
		Status:              entity.LedgerStatus(d.Status),
		Version:             d.Version,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if d.Transactions != nil {
		l.Transactions = make([]entity.LedgerTransaction, 0, len(d.Transactions))
		for _, t := range d.Transactions {
			l.Transactions = append(l.Transactions, t.toEntity())
		}
	}
	return l
}

func (t ledgerTransactionDoc) toEntity() entity.LedgerTransaction {
	return entity.LedgerTransaction{
		ID:              t.ID,
		Seq:             t.Seq,
		Date:            t.Date,
		Type:            entity.TransactionType(t.Type),
		ReferenceType:   entity.LedgerReferenceType(t.ReferenceType),
		ReferenceID:     t.ReferenceID,
		ReferenceNumber: t.ReferenceNumber,
		Description:     t.Description,
		Debit:           t.Debit,
		Credit:          t.Credit,
		Balance:         t.Balance,
		BalanceType:     entity.BalanceType(t.BalanceType),
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}
