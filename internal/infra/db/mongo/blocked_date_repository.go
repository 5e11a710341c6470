package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

const blockedDatesCollection = "blocked_dates"

// BlockedDateRepository stores one document per car and day. Dates are kept
// as ISO strings, which sort the same way as the days they name.
type BlockedDateRepository struct {
	col *mongo.Collection
}

func NewBlockedDateRepository(db *mongo.Database) *BlockedDateRepository {
	return &BlockedDateRepository{col: db.Collection(blockedDatesCollection)}
}

func ensureBlockedDateIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(blockedDatesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "car_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("car_date_unique"),
	})
	return translate("index blocked dates", err, nil)
}

func (r *BlockedDateRepository) ListBlocked(ctx context.Context, carID domaincars.CarID, window daterange.Range) ([]domainavailability.BlockedDate, error) {
	filter := bson.M{
		"car_id": string(carID),
		"date":   bson.M{"$gte": window.Start.String(), "$lte": window.End.String()},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, translate("list blocked dates", err, nil)
	}
	var docs []blockedDateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate("list blocked dates", err, nil)
	}
	out := make([]domainavailability.BlockedDate, 0, len(docs))
	for _, doc := range docs {
		b, err := doc.toBlockedDate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// AddBlocked upserts with $setOnInsert so existing markers keep their
// original creation time.
func (r *BlockedDateRepository) AddBlocked(ctx context.Context, carID domaincars.CarID, dates []daterange.Date, now time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(dates))
	for _, d := range dates {
		doc := blockedDateDocument{ID: blockedDateID(carID, d), CarID: string(carID), Date: d.String(), CreatedAt: timeToTimestamp(now)}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return translate("block dates", err, nil)
}

func (r *BlockedDateRepository) RemoveBlocked(ctx context.Context, carID domaincars.CarID, dates []daterange.Date) error {
	if len(dates) == 0 {
		return nil
	}
	values := make([]string, 0, len(dates))
	for _, d := range dates {
		values = append(values, d.String())
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"car_id": string(carID), "date": bson.M{"$in": values}})
	return translate("unblock dates", err, nil)
}

func (r *BlockedDateRepository) RemoveAllForCar(ctx context.Context, carID domaincars.CarID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"car_id": string(carID)})
	return translate("drop blocked dates", err, nil)
}

type blockedDateDocument struct {
	ID        string `bson:"_id"`
	CarID     string `bson:"car_id"`
	Date      string `bson:"date"`
	CreatedAt int64  `bson:"created_at"`
}

func blockedDateID(carID domaincars.CarID, d daterange.Date) string {
	return string(carID) + ":" + d.String()
}

func (d blockedDateDocument) toBlockedDate() (domainavailability.BlockedDate, error) {
	date, err := daterange.ParseDate(d.Date)
	if err != nil {
		return domainavailability.BlockedDate{}, err
	}
	return domainavailability.BlockedDate{
		CarID:     domaincars.CarID(d.CarID),
		Date:      date,
		CreatedAt: timestampToTime(d.CreatedAt),
	}, nil
}

var _ domainavailability.Repository = (*BlockedDateRepository)(nil)
