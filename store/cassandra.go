package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"
)

// CassandraStore keeps sessions in the sessions table of a keyspace:
//
//	CREATE TABLE sessions (name text PRIMARY KEY, data blob, saved_at timestamp);
type CassandraStore struct {
	session *gocql.Session
}

var _ Store = (*CassandraStore)(nil)

func NewCassandraStore(hosts []string, keyspace string) (*CassandraStore, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}
	return &CassandraStore{session: session}, nil
}

func (s *CassandraStore) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	query := `INSERT INTO sessions (name, data, saved_at) VALUES (?, ?, ?)`
	if err := s.session.Query(query, name, data, time.Now()).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", name, err)
	}
	return nil
}

func (s *CassandraStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var data []byte
	query := `SELECT data FROM sessions WHERE name = ?`
	err := s.session.Query(query, name).WithContext(ctx).Scan(&data)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", name, err)
	}
	return data, nil
}

func (s *CassandraStore) List(ctx context.Context) ([]string, error) {
	iter := s.session.Query(`SELECT name FROM sessions`).WithContext(ctx).Iter()
	var names []string
	var name string
	for iter.Scan(&name) {
		names = append(names, name)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *CassandraStore) Close() error {
	s.session.Close()
	return nil
}
