package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voice-order-service/internal/model"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NewBSONRegistry agrega el codec de decimal.Decimal (se guarda como string
// para no perder precisión). Se pasa al cliente con SetRegistry.
func NewBSONRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	return vw.WriteString(val.Interface().(decimal.Decimal).String())
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	s, err := vr.ReadString()
	if err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("decoding decimal %q: %w", s, err)
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes crea el índice único sobre order_id (Create depende de él).
func (m *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	_, err := m.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrOrderAlreadyExists
	}
	return err
}

// Save reemplaza el documento completo (sin control de concurrencia).
func (m *MongoOrderRepository) Save(ctx context.Context, o *model.Order) error {
	filter := bson.M{"order_id": o.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := m.col.ReplaceOne(ctx, filter, o, opts)
	return err
}

func (m *MongoOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoOrderRepository) FindIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	return m.findIDs(ctx, bson.M{"order_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}})
}

func (m *MongoOrderRepository) ListIDs(ctx context.Context) ([]string, error) {
	return m.findIDs(ctx, bson.M{})
}

func (m *MongoOrderRepository) findIDs(ctx context.Context, filter bson.M) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"order_id": 1, "_id": 0}).
		SetSort(bson.D{{Key: "order_id", Value: 1}})

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var v struct {
			OrderID string `bson:"order_id"`
		}
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v.OrderID)
	}
	return out, cur.Err()
}
