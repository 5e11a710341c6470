package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/money"
)

const carsCollection = "cars"

type CarRepository struct {
	col *mongo.Collection
}

func NewCarRepository(db *mongo.Database) *CarRepository {
	return &CarRepository{col: db.Collection(carsCollection)}
}

func ensureCarIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(carsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "agency_id", Value: 1}, {Key: "brand", Value: 1}},
	})
	return translate("index cars", err, nil)
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	var doc carDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincars.ErrCarNotFound
		}
		return nil, translate("find car", err, nil)
	}
	return doc.toAggregate(), nil
}

// Save upserts the car guarded by its version. rental_seq is left alone so
// rental creation can serialize on the car document.
func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	doc := newCarDocument(car)
	filter := bson.M{"_id": doc.ID, "version": car.Version}
	doc.Version = car.Version + 1
	conflict := &apperr.ConflictError{Resource: "car", ID: doc.ID}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return translate("save car", err, conflict)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return conflict
	}
	car.Version = doc.Version
	return nil
}

func (r *CarRepository) Delete(ctx context.Context, id domaincars.CarID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return translate("delete car", err, nil)
	}
	if res.DeletedCount == 0 {
		return domaincars.ErrCarNotFound
	}
	return nil
}

func (r *CarRepository) List(ctx context.Context, params domaincars.ListParams) ([]*domaincars.Car, error) {
	filter := bson.M{}
	if params.Agency != "" {
		filter["agency_id"] = string(params.Agency)
	}
	opts := options.Find().SetSort(bson.D{{Key: "brand", Value: 1}, {Key: "_id", Value: 1}})
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate("list cars", err, nil)
	}
	var docs []carDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate("list cars", err, nil)
	}
	out := make([]*domaincars.Car, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type carDocument struct {
	ID          string        `bson:"_id"`
	AgencyID    string        `bson:"agency_id"`
	Brand       string        `bson:"brand"`
	Model       string        `bson:"model"`
	Year        int           `bson:"year"`
	PricePerDay moneyDocument `bson:"price_per_day"`
	Fuel        string        `bson:"fuel"`
	Gearbox     string        `bson:"gearbox"`
	Seats       int           `bson:"seats"`
	Doors       int           `bson:"doors"`
	Mileage     int           `bson:"mileage"`
	Images      []string      `bson:"images"`
	Description string        `bson:"description"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
	Version     int64         `bson:"version"`
}

func newCarDocument(c *domaincars.Car) carDocument {
	return carDocument{
		ID:          string(c.ID),
		AgencyID:    string(c.Agency),
		Brand:       c.Brand,
		Model:       c.Model,
		Year:        c.Year,
		PricePerDay: newMoneyDocument(c.PricePerDay),
		Fuel:        string(c.Fuel),
		Gearbox:     string(c.Gearbox),
		Seats:       c.Seats,
		Doors:       c.Doors,
		Mileage:     c.Mileage,
		Images:      c.Images,
		Description: c.Description,
		CreatedAt:   timeToTimestamp(c.CreatedAt),
		UpdatedAt:   timeToTimestamp(c.UpdatedAt),
		Version:     c.Version,
	}
}

func (d carDocument) toAggregate() *domaincars.Car {
	return &domaincars.Car{
		ID:          domaincars.CarID(d.ID),
		Agency:      domaincars.AgencyID(d.AgencyID),
		Brand:       d.Brand,
		Model:       d.Model,
		Year:        d.Year,
		PricePerDay: d.PricePerDay.toMoney(),
		Fuel:        domaincars.Fuel(d.Fuel),
		Gearbox:     domaincars.Gearbox(d.Gearbox),
		Seats:       d.Seats,
		Doors:       d.Doors,
		Mileage:     d.Mileage,
		Images:      d.Images,
		Description: d.Description,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ domaincars.Repository = (*CarRepository)(nil)
