package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelrec/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects with the pool settings the API runs with and pings once.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func (r *Repo) GetOrCreateUser(ctx context.Context, identifier string) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertUserSQL, identifier)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) CreateSession(ctx context.Context, userID int64, token string) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertSessionSQL, userID, token)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) InsertFeedback(ctx context.Context, f domain.Feedback) error {
	_, err := r.db.ExecContext(ctx, insertFeedbackSQL,
		f.UserID,
		f.SessionID,
		f.HotelID,
		valStr(f.RestaurantID),
		f.Rating,
		valText(f.Comment),
	)
	return err
}

func (r *Repo) GetRecentFeedback(ctx context.Context, userID int64, limit int) ([]domain.FeedbackEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, recentFeedbackSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FeedbackEntry, 0, limit)
	for rows.Next() {
		var e domain.FeedbackEntry
		if err := rows.Scan(&e.Rating, &e.Comment); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListFeedback returns full rows, newest first.
func (r *Repo) ListFeedback(ctx context.Context, userID int64, limit int) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, listFeedbackSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		var rid sql.NullString
		if err := rows.Scan(&f.ID, &f.UserID, &f.SessionID, &f.HotelID, &rid, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		if rid.Valid {
			s := rid.String
			f.RestaurantID = &s
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) GetSession(ctx context.Context, token string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx, getSessionSQL, token).Scan(&s.ID, &s.UserID, &s.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, err
}
