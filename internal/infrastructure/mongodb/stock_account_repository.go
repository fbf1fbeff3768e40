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

var _ repository.StockAccountRepository = (*StockAccountRepo)(nil)

type stockAccountDoc struct {
	ID               string             `bson:"_id"`
	BusinessID       string             `bson:"business_id"`
	ProductID        string             `bson:"product_id"`
	ProductName      string             `bson:"product_name"`
	SKU              string             `bson:"sku"`
	Unit             string             `bson:"unit"`
	CurrentStock     decimal.Decimal    `bson:"current_stock"`
	ReorderLevel     decimal.Decimal    `bson:"reorder_level"`
	MaxStockLevel    *decimal.Decimal   `bson:"max_stock_level"`
	Warehouse        string             `bson:"warehouse"`
	Rack             string             `bson:"rack"`
	Bin              string             `bson:"bin"`
	ValuationMethod  string             `bson:"valuation_method"`
	AverageRate      decimal.Decimal    `bson:"average_rate"`
	TotalValue       decimal.Decimal    `bson:"total_value"`
	LastPurchaseDate *time.Time         `bson:"last_purchase_date"`
	LastPurchaseRate *decimal.Decimal   `bson:"last_purchase_rate"`
	LastSaleDate     *time.Time         `bson:"last_sale_date"`
	LastSaleRate     *decimal.Decimal   `bson:"last_sale_rate"`
	Status           string             `bson:"status"`
	Version          int64              `bson:"version"`
	Movements        []stockMovementDoc `bson:"movements"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

type stockMovementDoc struct {
	ID              string           `bson:"id"`
	Seq             int              `bson:"seq"`
	Date            time.Time        `bson:"date"`
	Type            string           `bson:"type"`
	ReferenceType   string           `bson:"reference_type"`
	ReferenceID     string           `bson:"reference_id"`
	ReferenceNumber string           `bson:"reference_number"`
	Quantity        decimal.Decimal  `bson:"quantity"`
	PreviousStock   decimal.Decimal  `bson:"previous_stock"`
	NewStock        decimal.Decimal  `bson:"new_stock"`
	Rate            *decimal.Decimal `bson:"rate"`
	TotalValue      decimal.Decimal  `bson:"total_value"`
	Remarks         string           `bson:"remarks"`
	CreatedBy       string           `bson:"created_by"`
	CreatedAt       time.Time        `bson:"created_at"`
}

// StockAccountRepo implementación de StockAccountRepository sobre MongoDB.
// Los movimientos van embebidos en el documento de la cuenta: cada escritura es atómica
// y el filtro por versión hace de control optimista.
type StockAccountRepo struct {
	col *mongo.Collection
}

// NewStockAccountRepository construye el adaptador sobre la base dada.
func NewStockAccountRepository(db *mongo.Database) *StockAccountRepo {
	return &StockAccountRepo{col: db.Collection(stockAccountsCollection)}
}

// Create inserta la cuenta con sus movimientos iniciales.
func (r *StockAccountRepo) Create(ctx context.Context, acc *entity.StockAccount) error {
	if _, err := r.col.InsertOne(ctx, toStockAccountDoc(acc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: cuenta de stock (%s, %s)", domain.ErrDuplicate, acc.BusinessID, acc.ProductID)
		}
		return fmt.Errorf("create stock account: %w", err)
	}
	return nil
}

// GetByID obtiene la cuenta con sus movimientos. businessID vacío = sin restricción.
func (r *StockAccountRepo) GetByID(ctx context.Context, businessID, id string) (*entity.StockAccount, error) {
	filter := bson.M{"_id": id}
	if businessID != "" {
		filter["business_id"] = businessID
	}
	return r.findOne(ctx, filter)
}

// GetByProduct obtiene la cuenta por (negocio, producto).
func (r *StockAccountRepo) GetByProduct(ctx context.Context, businessID, productID string) (*entity.StockAccount, error) {
	return r.findOne(ctx, bson.M{"business_id": businessID, "product_id": productID})
}

// GetForUpdate igual que GetByID; la exclusión la da el filtro por versión al escribir.
func (r *StockAccountRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.StockAccount, error) {
	return r.GetByID(ctx, businessID, id)
}

func (r *StockAccountRepo) findOne(ctx context.Context, filter bson.M) (*entity.StockAccount, error) {
	var doc stockAccountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock account: %w", err)
	}
	return doc.toEntity(), nil
}

// List lista cuentas (sin movimientos) ordenadas por última actualización.
func (r *StockAccountRepo) List(ctx context.Context, filter repository.StockAccountFilter) ([]*entity.StockAccount, error) {
	q := bson.M{}
	if filter.BusinessID != "" {
		q["business_id"] = filter.BusinessID
	}
	if filter.ProductID != "" {
		q["product_id"] = filter.ProductID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		if filter.Status != "" {
			q["$and"] = bson.A{bson.M{"status": bson.M{"$in": statuses}}}
		} else {
			q["status"] = bson.M{"$in": statuses}
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"movements": 0})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list stock accounts: %w", err)
	}
	defer cur.Close(ctx)
	list := make([]*entity.StockAccount, 0)
	for cur.Next(ctx) {
		var doc stockAccountDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode stock account: %w", err)
		}
		list = append(list, doc.toEntity())
	}
	return list, cur.Err()
}

// UpdateDetails actualiza campos descriptivos y estado si la versión coincide.
func (r *StockAccountRepo) UpdateDetails(ctx context.Context, acc *entity.StockAccount) error {
	update := bson.M{
		"$set": bson.M{
			"product_name":     acc.ProductName,
			"sku":              acc.SKU,
			"unit":             acc.Unit,
			"reorder_level":    acc.ReorderLevel,
			"max_stock_level":  acc.MaxStockLevel,
			"warehouse":        acc.Location.Warehouse,
			"rack":             acc.Location.Rack,
			"bin":              acc.Location.Bin,
			"valuation_method": string(acc.ValuationMethod),
			"status":           string(acc.Status),
			"updated_at":       acc.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	return r.updateVersioned(ctx, acc, bson.M{"_id": acc.ID, "version": acc.Version}, update)
}

// AppendMovement agrega el último movimiento y los campos derivados si la versión y el largo
// del historial coinciden.
func (r *StockAccountRepo) AppendMovement(ctx context.Context, acc *entity.StockAccount) error {
	last := acc.LastMovement()
	if last == nil {
		return fmt.Errorf("%w: la cuenta %s no tiene movimiento para persistir", domain.ErrInvalidInput, acc.ID)
	}
	filter := bson.M{
		"_id":       acc.ID,
		"version":   acc.Version,
		"movements": bson.M{"$size": len(acc.Movements) - 1},
	}
	update := bson.M{
		"$set": bson.M{
			"current_stock":      acc.CurrentStock,
			"average_rate":       acc.AverageRate,
			"total_value":        acc.TotalValue,
			"last_purchase_date": acc.LastPurchaseDate,
			"last_purchase_rate": acc.LastPurchaseRate,
			"last_sale_date":     acc.LastSaleDate,
			"last_sale_rate":     acc.LastSaleRate,
			"status":             string(acc.Status),
			"updated_at":         acc.UpdatedAt,
		},
		"$push": bson.M{"movements": toStockMovementDoc(*last)},
		"$inc":  bson.M{"version": 1},
	}
	return r.updateVersioned(ctx, acc, filter, update)
}

func (r *StockAccountRepo) updateVersioned(ctx context.Context, acc *entity.StockAccount, filter, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update stock account: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": acc.ID})
		if err != nil {
			return fmt.Errorf("update stock account: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, acc.ID)
		}
		return fmt.Errorf("%w: cuenta %s (versión %d)", domain.ErrConcurrency, acc.ID, acc.Version)
	}
	acc.Version++
	return nil
}

// ListMovements devuelve movimientos filtrados, del más antiguo al más reciente.
func (r *StockAccountRepo) ListMovements(ctx context.Context, accountID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	var doc stockAccountDoc
	opts := options.FindOne().SetProjection(bson.M{"movements": 1})
	if err := r.col.FindOne(ctx, bson.M{"_id": accountID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []entity.StockMovement{}, nil
		}
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	out := make([]entity.StockMovement, 0, len(doc.Movements))
	for _, m := range doc.Movements {
		if filter.Type != "" && m.Type != string(filter.Type) {
			continue
		}
		if filter.From != nil && m.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.Date.After(*filter.To) {
			continue
		}
		out = append(out, m.toEntity())
	}
	return repository.Page(out, filter.Limit, filter.Offset), nil
}

// Delete elimina la cuenta con su historial.
func (r *StockAccountRepo) Delete(ctx context.Context, businessID, id string) error {
	filter := bson.M{"_id": id}
	if businessID != "" {
		filter["business_id"] = businessID
	}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete stock account: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: cuenta de stock %s", domain.ErrNotFound, id)
	}
	return nil
}

func toStockAccountDoc(a *entity.StockAccount) stockAccountDoc {
	doc := stockAccountDoc{
		ID:               a.ID,
		BusinessID:       a.BusinessID,
		ProductID:        a.ProductID,
		ProductName:      a.ProductName,
		SKU:              a.SKU,
		Unit:             a.Unit,
		CurrentStock:     a.CurrentStock,
		ReorderLevel:     a.ReorderLevel,
		MaxStockLevel:    a.MaxStockLevel,
		Warehouse:        a.Location.Warehouse,
		Rack:             a.Location.Rack,
		Bin:              a.Location.Bin,
		ValuationMethod:  string(a.ValuationMethod),
		AverageRate:      a.AverageRate,
		TotalValue:       a.TotalValue,
		LastPurchaseDate: a.LastPurchaseDate,
		LastPurchaseRate: a.LastPurchaseRate,
		LastSaleDate:     a.LastSaleDate,
		LastSaleRate:     a.LastSaleRate,
		Status:           string(a.Status),
		Version:          a.Version,
		Movements:        make([]stockMovementDoc, 0, len(a.Movements)),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	for _, m := range a.Movements {
		doc.Movements = append(doc.Movements, toStockMovementDoc(m))
	}
	return doc
}

func toStockMovementDoc(m entity.StockMovement) stockMovementDoc {
	return stockMovementDoc{
		ID:              m.ID,
		Seq:             m.Seq,
		Date:            m.Date,
		Type:            string(m.Type),
		ReferenceType:   string(m.ReferenceType),
		ReferenceID:     m.ReferenceID,
		ReferenceNumber: m.ReferenceNumber,
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		Rate:            m.Rate,
		TotalValue:      m.TotalValue,
		Remarks:         m.Remarks,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

func (d stockAccountDoc) toEntity() *entity.StockAccount {
	a := &entity.StockAccount{
		ID:               d.ID,
		BusinessID:       d.BusinessID,
		ProductID:        d.ProductID,
		ProductName:      d.ProductName,
		SKU:              d.SKU,
		Unit:             d.Unit,
		CurrentStock:     d.CurrentStock,
		ReorderLevel:     d.ReorderLevel,
		MaxStockLevel:    d.MaxStockLevel,
		Location:         entity.StockLocation{Warehouse: d.Warehouse, Rack: d.Rack, Bin: d.Bin},
		ValuationMethod:  entity.ValuationMethod(d.ValuationMethod),
		AverageRate:      d.AverageRate,
		TotalValue:       d.TotalValue,
		LastPurchaseDate: d.LastPurchaseDate,
		LastPurchaseRate: d.LastPurchaseRate,
		LastSaleDate:     d.LastSaleDate,
		LastSaleRate:     d.LastSaleRate,
		Status:           entity.StockStatus(d.Status),
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Movements != nil {
		a.Movements = make([]entity.StockMovement, 0, len(d.Movements))
		for _, m := range d.Movements {
			a.Movements = append(a.Movements, m.toEntity())
		}
	}
	return a
}

func (m stockMovementDoc) toEntity() entity.StockMovement {
	return entity.StockMovement{
		ID:              m.ID,
		Seq:             m.Seq,
		Date:            m.Date,
		Type:            entity.MovementType(m.Type),
		ReferenceType:   entity.ReferenceType(m.ReferenceType),
		ReferenceID:     m.ReferenceID,
		ReferenceNumber: m.ReferenceNumber,
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		Rate:            m.Rate,
		TotalValue:      m.TotalValue,
		Remarks:         m.Remarks,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}
