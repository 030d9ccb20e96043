package listing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"go-market/internal/apperr"
)

const table = "listings"

var (
	dialect = goqu.Dialect("postgres")
	columns = []any{
		"id", "owner_id", "title", "description", "price",
		"latitude", "longitude", "photo_url", "sold", "created_at",
	}
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns listings newest first, narrowed only by what q names.
func (r *Repository) List(ctx context.Context, q Query) ([]Listing, error) {
	ds := dialect.From(table).Select(columns...)
	if q.OwnerID != "" {
		ds = ds.Where(goqu.C("owner_id").Eq(q.OwnerID))
	}
	if q.ExcludeSold {
		ds = ds.Where(goqu.C("sold").IsFalse())
	}
	query, args, err := ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	listings := []Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, apperr.Gateway("list listings", err)
	}
	return listings, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Listing, error) {
	query, args, err := dialect.From(table).Select(columns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var l Listing
	if err := r.db.GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("listing %d", id)
		}
		return nil, apperr.Gateway("get listing", err)
	}
	return &l, nil
}

// Insert stores l and fills in the generated id, sold flag and timestamp.
func (r *Repository) Insert(ctx context.Context, l *Listing) error {
	query, args, err := dialect.Insert(table).Rows(goqu.Record{
		"owner_id":    l.OwnerID,
		"title":       l.Title,
		"description": l.Description,
		"price":       l.Price,
		"latitude":    l.Latitude,
		"longitude":   l.Longitude,
		"photo_url":   l.PhotoURL,
	}).Returning(columns...).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	if err := r.db.GetContext(ctx, l, query, args...); err != nil {
		return apperr.Gateway("insert listing", err)
	}
	return nil
}

// MarkSold sets the sold flag. Marking a sold listing again is a no-op.
func (r *Repository) MarkSold(ctx context.Context, id int64) (*Listing, error) {
	query, args, err := dialect.Update(table).
		Set(goqu.Record{"sold": true}).
		Where(goqu.C("id").Eq(id)).
		Returning(columns...).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var l Listing
	if err := r.db.GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("listing %d", id)
		}
		return nil, apperr.Gateway("mark listing sold", err)
	}
	return &l, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query, args, err := dialect.Delete(table).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Gateway("delete listing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Gateway("delete listing", err)
	}
	if n == 0 {
		return apperr.NotFound("listing %d", id)
	}
	return nil
}
