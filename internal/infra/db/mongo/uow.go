package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	CarsRepo         domaincars.Repository
	BlockedDatesRepo domainavailability.Repository
	RentalsRepo      domainrental.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory over the default repositories of db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		CarsRepo:         NewCarRepository(db),
		BlockedDatesRepo: NewBlockedDateRepository(db),
		RentalsRepo:      NewRentalRepository(db),
	}
}

// Begin starts a session and a snapshot transaction with majority writes.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, translate("start session", err, nil)
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Majority())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, translate("start transaction", err, nil)
	}
	return &Unit{
		session:      session,
		cars:         f.CarsRepo,
		blockedDates: f.BlockedDatesRepo,
		rentals:      f.RentalsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	cars         domaincars.Repository
	blockedDates domainavailability.Repository
	rentals      domainrental.Repository
}

func (u *Unit) Cars() domaincars.Repository                 { return u.cars }
func (u *Unit) BlockedDates() domainavailability.Repository { return u.blockedDates }
func (u *Unit) Rentals() domainrental.Repository            { return u.rentals }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return translate("commit", u.session.CommitTransaction(ctx), nil)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext puts the session in ctx so repository calls join the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
