package favorite

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"go-market/internal/apperr"
	"go-market/internal/listing"
)

const table = "favorites"

var dialect = goqu.Dialect("postgres")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, userID string, listingID int64) (bool, error) {
	inner := dialect.From(table).Select(goqu.L("1")).
		Where(goqu.C("user_id").Eq(userID), goqu.C("listing_id").Eq(listingID))
	query, args, err := dialect.Select(goqu.L("EXISTS ?", inner)).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, apperr.Gateway("favorite exists", err)
	}
	return exists, nil
}

// Insert returns a conflict error if the pair exists and not-found if the
// listing does not.
func (r *Repository) Insert(ctx context.Context, userID string, listingID int64) error {
	query, args, err := dialect.Insert(table).
		Rows(goqu.Record{"user_id": userID, "listing_id": listingID}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return apperr.Gateway("insert favorite", err)
	}
	return nil
}

// Delete returns a not-found error if there was nothing to remove.
func (r *Repository) Delete(ctx context.Context, userID string, listingID int64) error {
	query, args, err := dialect.Delete(table).
		Where(goqu.C("user_id").Eq(userID), goqu.C("listing_id").Eq(listingID)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Gateway("delete favorite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Gateway("delete favorite", err)
	}
	if n == 0 {
		return apperr.NotFound("favorite %s/%d", userID, listingID)
	}
	return nil
}

// ListListings returns the listings userID has favorited, most recently
// favorited first.
func (r *Repository) ListListings(ctx context.Context, userID string) ([]listing.Listing, error) {
	query, args, err := dialect.From(goqu.T(table).As("f")).
		InnerJoin(goqu.T("listings").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("f.listing_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.owner_id"), goqu.I("l.title"), goqu.I("l.description"),
			goqu.I("l.price"), goqu.I("l.latitude"), goqu.I("l.longitude"), goqu.I("l.photo_url"),
			goqu.I("l.sold"), goqu.I("l.created_at"),
		).
		Where(goqu.I("f.user_id").Eq(userID)).
		Order(goqu.I("f.created_at").Desc(), goqu.I("l.id").Desc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	listings := []listing.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, apperr.Gateway("list favorite listings", err)
	}
	return listings, nil
}
