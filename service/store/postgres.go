package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/peergram/go-suggest/env"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
)

func init() {
	env.RegisterValidation("POSTGRES_HOST", "required")
}

// metersPerDegreeLat is close enough for a bounding-box prefilter; exact
// distances are recomputed by callers with the haversine formula.
const metersPerDegreeLat = 111320.0

// PostgresStore implements SocialStore and ContentStore against the platform's
// relational store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// MustCreatePgxPool creates a pgx connection pool from the environment and
// panics if the database is unreachable.
func MustCreatePgxPool(ctx context.Context) *pgxpool.Pool {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s",
		env.GetString(ctx, "POSTGRES_HOST"),
		env.GetInt(ctx, "POSTGRES_PORT"),
		env.GetString(ctx, "POSTGRES_USER"),
		env.GetString(ctx, "POSTGRES_PASSWORD"),
		env.GetString(ctx, "POSTGRES_DB"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		logger.For(ctx).WithError(err).Error("could not parse pgx connection string")
		panic(err)
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		logger.For(ctx).WithError(err).Error("could not open database connection")
		panic(err)
	}

	if err := pool.Ping(ctx); err != nil {
		panic(err)
	}

	return pool
}

func (s *PostgresStore) FetchFollowing(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	rows, err := s.pool.Query(ctx,
		`select followee_id from follows where follower_id = $1 and deleted = false`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *PostgresStore) FetchFollowers(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	rows, err := s.pool.Query(ctx,
		`select follower_id from follows where followee_id = $1 and deleted = false`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *PostgresStore) FetchUserProfile(ctx context.Context, userID persist.DBID) (persist.Profile, error) {
	var p persist.Profile
	var lat, lng *float64
	err := s.pool.QueryRow(ctx,
		`select id, username, latitude, longitude, created_at from users where id = $1 and deleted = false`,
		userID,
	).Scan(&p.ID, &p.Username, &lat, &lng, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.Profile{}, ErrProfileNotFound{UserID: userID}
	}
	if err != nil {
		return persist.Profile{}, err
	}
	if lat != nil && lng != nil {
		p.Location = &persist.LatLong{Latitude: *lat, Longitude: *lng}
	}
	return p, nil
}

func (s *PostgresStore) FetchRecentPosts(ctx context.Context, userID persist.DBID, limit int) ([]persist.Post, error) {
	rows, err := s.pool.Query(ctx,
		`select id, author_id, latitude, longitude, created_at
		 from posts where author_id = $1 and deleted = false
		 order by created_at desc limit $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) FetchPostsNearLocation(ctx context.Context, loc persist.LatLong, radiusMeters float64, limit int) ([]persist.Post, error) {
	latDelta := radiusMeters / metersPerDegreeLat
	lngDelta := latDelta
	if cosLat := math.Cos(loc.Latitude * math.Pi / 180); cosLat > 0.01 {
		lngDelta = latDelta / cosLat
	}

	rows, err := s.pool.Query(ctx,
		`select id, author_id, latitude, longitude, created_at
		 from posts
		 where deleted = false
		   and latitude between $1 and $2
		   and longitude between $3 and $4
		 order by created_at desc limit $5`,
		loc.Latitude-latDelta, loc.Latitude+latDelta,
		loc.Longitude-lngDelta, loc.Longitude+lngDelta,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) FetchRecentGlobalPosts(ctx context.Context, since time.Time, limit int) ([]persist.Post, error) {
	rows, err := s.pool.Query(ctx,
		`select id, author_id, latitude, longitude, created_at
		 from posts where created_at >= $1 and deleted = false
		 order by created_at desc limit $2`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) FetchLikers(ctx context.Context, postID persist.DBID) ([]persist.DBID, error) {
	rows, err := s.pool.Query(ctx,
		`select user_id from post_likes where post_id = $1`,
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]persist.DBID, error) {
	var ids []persist.DBID
	for rows.Next() {
		var id persist.DBID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPosts(rows pgx.Rows) ([]persist.Post, error) {
	var posts []persist.Post
	for rows.Next() {
		var p persist.Post
		var lat, lng *float64
		if err := rows.Scan(&p.ID, &p.AuthorID, &lat, &lng, &p.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			p.Location = &persist.LatLong{Latitude: *lat, Longitude: *lng}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
