package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
)

const rentalsCollection = "rentals"

var occupyingStatuses = []string{string(domainrental.StatusReserved), string(domainrental.StatusOngoing)}

// RentalRepository persists rentals. Create serializes on the car document
// and UpdateStatus filters on the stored status, so concurrent writers get
// a conflict instead of a double booking or a lost transition.
type RentalRepository struct {
	col  *mongo.Collection
	cars *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{col: db.Collection(rentalsCollection), cars: db.Collection(carsCollection)}
}

func ensureRentalIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(rentalsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "car_id", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "agency_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "start", Value: 1}, {Key: "status", Value: 1}}},
	})
	return translate("index rentals", err, nil)
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	var doc rentalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrRentalNotFound
		}
		return nil, translate("find rental", err, nil)
	}
	return doc.toAggregate()
}

func (r *RentalRepository) Create(ctx context.Context, rental *domainrental.Rental) error {
	taken := &apperr.ConflictError{Resource: "car", ID: string(rental.CarID), Expected: "available", Actual: "rented"}

	res, err := r.cars.UpdateOne(ctx, bson.M{"_id": string(rental.CarID)}, bson.M{"$inc": bson.M{"rental_seq": 1}})
	if err != nil {
		return translate("lock car", err, taken)
	}
	if res.MatchedCount == 0 {
		return domaincars.ErrCarNotFound
	}

	overlapping, err := r.col.CountDocuments(ctx, bson.M{
		"car_id": string(rental.CarID),
		"status": bson.M{"$in": occupyingStatuses},
		"start":  bson.M{"$lte": rental.Dates.End.String()},
		"end":    bson.M{"$gte": rental.Dates.Start.String()},
	})
	if err != nil {
		return translate("check overlap", err, nil)
	}
	if overlapping > 0 {
		return taken
	}

	doc := newRentalDocument(rental)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return translate("insert rental", err, &apperr.ConflictError{Resource: "rental", ID: doc.ID})
	}
	rental.Version = doc.Version
	return nil
}

func (r *RentalRepository) UpdateStatus(ctx context.Context, rental *domainrental.Rental, expected domainrental.Status) error {
	doc := newRentalDocument(rental)
	filter := bson.M{"_id": doc.ID, "status": string(expected)}
	update := bson.M{
		"$set": bson.M{
			"status":     doc.Status,
			"history":    doc.History,
			"updated_at": doc.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate("update rental status", err, &apperr.ConflictError{Resource: "rental", ID: doc.ID, Expected: string(expected)})
	}
	if res.MatchedCount == 0 {
		current, err := r.ByID(ctx, rental.ID)
		if err != nil {
			return err
		}
		return &apperr.ConflictError{Resource: "rental", ID: doc.ID, Expected: string(expected), Actual: string(current.Status)}
	}
	rental.Version++
	return nil
}

func (r *RentalRepository) ListByCar(ctx context.Context, carID domaincars.CarID, window daterange.Range) ([]*domainrental.Rental, error) {
	return r.find(ctx, "list car rentals", bson.M{
		"car_id": string(carID),
		"start":  bson.M{"$lte": window.End.String()},
		"end":    bson.M{"$gte": window.Start.String()},
	})
}

func (r *RentalRepository) ListByClient(ctx context.Context, clientID string) ([]*domainrental.Rental, error) {
	return r.find(ctx, "list client rentals", bson.M{"client_id": clientID})
}

func (r *RentalRepository) ListByAgency(ctx context.Context, agencyID domaincars.AgencyID, statuses []domainrental.Status) ([]*domainrental.Rental, error) {
	filter := bson.M{"agency_id": string(agencyID)}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		filter["status"] = bson.M{"$in": values}
	}
	return r.find(ctx, "list agency rentals", filter)
}

func (r *RentalRepository) ListStartingOn(ctx context.Context, date daterange.Date, status domainrental.Status) ([]*domainrental.Rental, error) {
	return r.find(ctx, "list starting rentals", bson.M{"start": date.String(), "status": string(status)})
}

func (r *RentalRepository) CountActiveByCar(ctx context.Context, carID domaincars.CarID) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"car_id": string(carID), "status": bson.M{"$in": occupyingStatuses}})
	if err != nil {
		return 0, translate("count active rentals", err, nil)
	}
	return int(n), nil
}

func (r *RentalRepository) find(ctx context.Context, op string, filter bson.M) ([]*domainrental.Rental, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(op, err, nil)
	}
	var docs []rentalDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(op, err, nil)
	}
	out := make([]*domainrental.Rental, 0, len(docs))
	for _, doc := range docs {
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

type rentalDocument struct {
	ID        string                 `bson:"_id"`
	CarID     string                 `bson:"car_id"`
	AgencyID  string                 `bson:"agency_id"`
	ClientID  string                 `bson:"client_id"`
	Start     string                 `bson:"start"`
	End       string                 `bson:"end"`
	PickupAt  int64                  `bson:"pickup_at"`
	ReturnAt  int64                  `bson:"return_at"`
	Status    string                 `bson:"status"`
	Total     moneyDocument          `bson:"total"`
	Notes     string                 `bson:"notes"`
	History   []statusChangeDocument `bson:"history"`
	CreatedAt int64                  `bson:"created_at"`
	UpdatedAt int64                  `bson:"updated_at"`
	Version   int64                  `bson:"version"`
}

type statusChangeDocument struct {
	From string `bson:"from,omitempty"`
	To   string `bson:"to"`
	By   string `bson:"by"`
	At   int64  `bson:"at"`
}

func newRentalDocument(r *domainrental.Rental) rentalDocument {
	history := make([]statusChangeDocument, 0, len(r.History))
	for _, h := range r.History {
		history = append(history, statusChangeDocument{From: string(h.From), To: string(h.To), By: h.By, At: timeToTimestamp(h.At)})
	}
	return rentalDocument{
		ID:        string(r.ID),
		CarID:     string(r.CarID),
		AgencyID:  string(r.AgencyID),
		ClientID:  r.ClientID,
		Start:     r.Dates.Start.String(),
		End:       r.Dates.End.String(),
		PickupAt:  timeToTimestamp(r.PickupAt),
		ReturnAt:  timeToTimestamp(r.ReturnAt),
		Status:    string(r.Status),
		Total:     newMoneyDocument(r.Total),
		Notes:     r.Notes,
		History:   history,
		CreatedAt: timeToTimestamp(r.CreatedAt),
		UpdatedAt: timeToTimestamp(r.UpdatedAt),
		Version:   r.Version,
	}
}

func (d rentalDocument) toAggregate() (*domainrental.Rental, error) {
	start, err := daterange.ParseDate(d.Start)
	if err != nil {
		return nil, err
	}
	end, err := daterange.ParseDate(d.End)
	if err != nil {
		return nil, err
	}
	history := make([]domainrental.StatusChange, 0, len(d.History))
	for _, h := range d.History {
		history = append(history, domainrental.StatusChange{
			From: domainrental.Status(h.From),
			To:   domainrental.Status(h.To),
			By:   h.By,
			At:   timestampToTime(h.At),
		})
	}
	return &domainrental.Rental{
		ID:        domainrental.RentalID(d.ID),
		CarID:     domaincars.CarID(d.CarID),
		AgencyID:  domaincars.AgencyID(d.AgencyID),
		ClientID:  d.ClientID,
		Dates:     daterange.Range{Start: start, End: end},
		PickupAt:  timestampToTime(d.PickupAt),
		ReturnAt:  timestampToTime(d.ReturnAt),
		Status:    domainrental.Status(d.Status),
		Total:     d.Total.toMoney(),
		Notes:     d.Notes,
		History:   history,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}, nil
}

var _ domainrental.Repository = (*RentalRepository)(nil)
