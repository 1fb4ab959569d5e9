package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stayfinder/internal/domain"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements domain.TxInventoryStore on MySQL. A Repo bound to a
// transaction (via Transact) shares all read/write methods but cannot open
// another transaction.
type Repo struct {
	db *sql.DB // nil when bound to a transaction
	q  querier
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

// Transact runs fn against a Repo bound to one transaction; any error rolls
// the whole transaction back, so no partial ingestion ever survives.
func (r *Repo) Transact(ctx context.Context, fn func(domain.InventoryStore) error) error {
	if r.db == nil {
		return errors.New("mysql: nested transaction")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repo{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repo) UpsertProperty(ctx context.Context, externalID, name string) (domain.Property, error) {
	res, err := r.q.ExecContext(ctx, upsertPropertySQL, externalID, name)
	if err != nil {
		return domain.Property{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Property{}, err
	}
	return domain.Property{ID: id, ExternalPropertyID: externalID, Name: name}, nil
}

func (r *Repo) UpsertRoom(ctx context.Context, propertyID int64, externalRoomID string) (domain.Room, error) {
	res, err := r.q.ExecContext(ctx, upsertRoomSQL, propertyID, externalRoomID)
	if err != nil {
		return domain.Room{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{ID: id, PropertyID: propertyID, ExternalRoomID: externalRoomID}, nil
}

func (r *Repo) UpsertNightlyAvailability(ctx context.Context, n domain.NightlyAvailability) error {
	_, err := r.q.ExecContext(ctx, upsertAvailabilitySQL,
		n.RoomID,
		n.Date.Format("2006-01-02"),
		n.Price.StringFixed(2),
		n.MaxGuests,
	)
	return err
}

func (r *Repo) FindPropertyByExternalID(ctx context.Context, externalID string) (domain.Property, error) {
	return r.scanProperty(r.q.QueryRowContext(ctx, findPropertyByExternalIDSQL, externalID))
}

func (r *Repo) FindPropertyByName(ctx context.Context, name string) (domain.Property, error) {
	return r.scanProperty(r.q.QueryRowContext(ctx, findPropertyByNameSQL, name))
}

func (r *Repo) scanProperty(row *sql.Row) (domain.Property, error) {
	var p domain.Property
	if err := row.Scan(&p.ID, &p.ExternalPropertyID, &p.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, err
	}
	return p, nil
}

func (r *Repo) ListRoomsForProperty(ctx context.Context, propertyID int64) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx, listRoomsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var rm domain.Room
		var name sql.NullString
		if err := rows.Scan(&rm.ID, &rm.PropertyID, &rm.ExternalRoomID, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			n := name.String
			rm.Name = &n
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) ListNightlyAvailability(ctx context.Context, roomID int64, nights []time.Time) ([]domain.NightlyAvailability, error) {
	if len(nights) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(nights)+1)
	args = append(args, roomID)
	marks := make([]string, len(nights))
	for i, n := range nights {
		marks[i] = "?"
		args = append(args, n.Format("2006-01-02"))
	}
	query := listAvailabilityPrefix + "(" + strings.Join(marks, ",") + ")" + listAvailabilitySuffix

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NightlyAvailability
	for rows.Next() {
		var rec domain.NightlyAvailability
		var date time.Time
		var priceStr string
		if err := rows.Scan(&rec.RoomID, &date, &priceStr, &rec.MaxGuests); err != nil {
			return nil, err
		}
		y, m, d := date.Date()
		rec.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if rec.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
