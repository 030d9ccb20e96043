package chat

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"go-market/internal/apperr"
)

var (
	dialect        = goqu.Dialect("postgres")
	messageColumns = []any{"id", "listing_id", "sender_id", "recipient_id", "content", "created_at"}
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns every message userID sent or received, newest first,
// joined with the parent listing's title.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]UserMessage, error) {
	query, args, err := dialect.From(goqu.T("messages").As("m")).
		LeftJoin(goqu.T("listings").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("m.listing_id")))).
		Select(
			goqu.I("m.id"), goqu.I("m.listing_id"), goqu.I("m.sender_id"),
			goqu.I("m.recipient_id"), goqu.I("m.content"), goqu.I("m.created_at"),
			goqu.I("l.title").As("listing_title"),
		).
		Where(goqu.Or(
			goqu.I("m.sender_id").Eq(userID),
			goqu.I("m.recipient_id").Eq(userID),
		)).
		Order(goqu.I("m.created_at").Desc(), goqu.I("m.id").Desc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	msgs := []UserMessage{}
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, apperr.Gateway("list messages for user", err)
	}
	return msgs, nil
}

// ListThread returns the messages between userA and userB about one listing,
// oldest first.
func (r *Repository) ListThread(ctx context.Context, listingID int64, userA, userB string) ([]Message, error) {
	query, args, err := dialect.From("messages").Select(messageColumns...).
		Where(
			goqu.C("listing_id").Eq(listingID),
			goqu.Or(
				goqu.And(goqu.C("sender_id").Eq(userA), goqu.C("recipient_id").Eq(userB)),
				goqu.And(goqu.C("sender_id").Eq(userB), goqu.C("recipient_id").Eq(userA)),
			),
		).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	msgs := []Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, apperr.Gateway("list thread", err)
	}
	return msgs, nil
}

func (r *Repository) Insert(ctx context.Context, m *Message) error {
	query, args, err := dialect.Insert("messages").Rows(goqu.Record{
		"listing_id":   m.ListingID,
		"sender_id":    m.SenderID,
		"recipient_id": m.RecipientID,
		"content":      m.Content,
	}).Returning(messageColumns...).Prepared(true).ToSQL()
	if err != nil {
		return err
	}

	if err := r.db.GetContext(ctx, m, query, args...); err != nil {
		return apperr.Gateway("insert message", err)
	}
	return nil
}
