package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/peergram/go-suggest/service/persist"
)

// Neo4jSocialStore implements SocialStore against a graph database holding
// the follow graph. Deployments that keep follows in Postgres use
// PostgresStore instead; the engine only sees the SocialStore interface.
type Neo4jSocialStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jSocialStore establishes a Bolt connection and verifies it before
// returning.
func NewNeo4jSocialStore(ctx context.Context, uri, username, password, database string) (*Neo4jSocialStore, error) {
	auth := neo4j.NoAuth()
	if username != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &Neo4jSocialStore{driver: driver, database: database}, nil
}

func (s *Neo4jSocialStore) FetchFollowing(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	return s.readIDs(ctx,
		`MATCH (:User {id: $id})-[:FOLLOWS]->(u:User) RETURN u.id AS id`,
		map[string]any{"id": userID.String()},
	)
}

func (s *Neo4jSocialStore) FetchFollowers(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	return s.readIDs(ctx,
		`MATCH (u:User)-[:FOLLOWS]->(:User {id: $id}) RETURN u.id AS id`,
		map[string]any{"id": userID.String()},
	)
}

func (s *Neo4jSocialStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jSocialStore) readIDs(ctx context.Context, cypher string, params map[string]any) ([]persist.DBID, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var ids []persist.DBID
	for res.Next(ctx) {
		value, ok := res.Record().Get("id")
		if !ok {
			continue
		}
		if id, ok := value.(string); ok {
			ids = append(ids, persist.DBID(id))
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
