package mongodb

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/jhoicas/reco-api/pkg/config"
	"github.com/jhoicas/reco-api/pkg/logger"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	stockAccountsCollection = "stock_accounts"
	partyLedgersCollection  = "party_ledgers"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Connect abre el cliente, verifica la conexión y devuelve la base configurada.
// Los decimal.Decimal se guardan como Decimal128 para no perder precisión.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetRegistry(NewRegistry())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	if log != nil {
		log.Info().Str("database", cfg.Database).Msg("conectado a MongoDB")
	}
	return client, client.Database(cfg.Database), nil
}

// NewRegistry registro BSON por defecto más el códec de decimal.Decimal.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

// EnsureIndexes crea los índices únicos de identidad (negocio, producto) y (negocio, contraparte).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(stockAccountsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_stock_accounts_business_product"),
		},
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("stock_accounts indexes: %w", err)
	}
	_, err = db.Collection(partyLedgersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "party_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_party_ledgers_business_party"),
		},
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "party_type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("party_ledgers indexes: %w", err)
	}
	return nil
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	d := val.Interface().(decimal.Decimal)
	d128, ok := primitive.ParseDecimal128FromBigInt(d.Coefficient(), int(d.Exponent()))
	if !ok {
		return fmt.Errorf("decimal %s fuera del rango de Decimal128", d.String())
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	var d decimal.Decimal
	switch vr.Type() {
	case bsontype.Decimal128:
		d128, err := vr.ReadDecimal128()
		if err != nil {
			return err
		}
		bi, exp, err := d128.BigInt()
		if err != nil {
			return fmt.Errorf("decimal128 %s: %w", d128.String(), err)
		}
		d = decimal.NewFromBigInt(bi, int32(exp))
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		if d, err = decimal.NewFromString(s); err != nil {
			return err
		}
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return err
		}
		d = decimal.NewFromFloat(f)
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		if err != nil {
			return err
		}
		d = decimal.NewFromInt32(i)
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		if err != nil {
			return err
		}
		d = decimal.NewFromInt(i)
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("no se puede decodificar %s como decimal", vr.Type())
	}
	val.Set(reflect.ValueOf(d))
	return nil
}
