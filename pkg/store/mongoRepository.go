package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

type MongoRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewMongoRepository(client *mongo.Client, database, collection string) *MongoRepository {
	return &MongoRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

func (m *MongoRepository) products() *mongo.Collection {
	return m.client.Database(m.database).Collection(m.collection)
}

func (m *MongoRepository) DeleteAll(ctx context.Context) (int64, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "DeleteAll")
	defer span.End()

	startTime := time.Now()
	res, err := m.products().DeleteMany(ctx, bson.M{})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	addDBStatsToSpan(span, "mongodb", "DeleteAll", int(res.DeletedCount), time.Since(startTime))
	return res.DeletedCount, nil
}

func (m *MongoRepository) FetchByKeys(ctx context.Context, keys []string) ([]Product, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "FetchByKeys")
	defer span.End()

	startTime := time.Now()
	cursor, err := m.products().Find(ctx, bson.M{"sku_norm": bson.M{"$in": keys}})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []Product
	for cursor.Next(ctx) {
		var product Product
		if err := cursor.Decode(&product); err != nil {
			span.RecordError(err)
			return nil, err
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	addDBStatsToSpan(span, "mongodb", "FetchByKeys", len(products), time.Since(startTime))
	return products, nil
}

func (m *MongoRepository) BulkCreate(ctx context.Context, products []Product) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "BulkCreate")
	defer span.End()

	startTime := time.Now()
	for _, batch := range batches(products, createBatchSize) {
		docs := make([]interface{}, len(batch))
		for i, product := range batch {
			docs[i] = product
		}
		if _, err := m.products().InsertMany(ctx, docs); err != nil {
			span.RecordError(err)
			return err
		}
	}

	addDBStatsToSpan(span, "mongodb", "BulkCreate", len(products), time.Since(startTime))
	return nil
}

func (m *MongoRepository) BulkUpdate(ctx context.Context, products []Product) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "BulkUpdate")
	defer span.End()

	startTime := time.Now()
	for _, batch := range batches(products, updateBatchSize) {
		models := make([]mongo.WriteModel, len(batch))
		for i, product := range batch {
			models[i] = mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": product.ID}).
				SetUpdate(bson.M{"$set": bson.M{
					"name":        product.Name,
					"description": product.Description,
					"active":      product.Active,
					"updated_at":  time.Now(),
				}})
		}
		if _, err := m.products().BulkWrite(ctx, models); err != nil {
			span.RecordError(err)
			return err
		}
	}

	addDBStatsToSpan(span, "mongodb", "BulkUpdate", len(products), time.Since(startTime))
	return nil
}

func (m *MongoRepository) Count(ctx context.Context) (int64, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Count")
	defer span.End()

	count, err := m.products().CountDocuments(ctx, bson.M{})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}
