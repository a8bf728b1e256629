// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrInvalidStatus    = errors.New("invalid status")
)

const (
	cacheKeyPrefix  = "incident:"
	defaultCacheTTL = 10 * time.Minute

	// tombstone marks a key whose row changed after a read may have started.
	// Reads populate with SET NX, so an in-flight read cannot replace it.
	tombstone       = "-"
	minTombstoneTTL = 30 * time.Second
)

// Store persists incidents in PostgreSQL with an optional Redis read cache.
type Store struct {
	db           *sql.DB
	cache        *redis.Client
	cacheTTL     time.Duration
	queryTimeout time.Duration
	logger       logger.Logger
	now          func() time.Time
}

type Option func(*Store)

// WithCache enables cache-aside reads for Get.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Store) {
		s.cache = client
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.queryTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(db *sql.DB, log logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{
		db:       db,
		cacheTTL: defaultCacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "incident-store"}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Migrate creates the incidents table and adds any optional column an older
// table is missing. Existing columns are never altered or dropped.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create incidents table: %w", err)
	}

	existing, err := s.columns(ctx)
	if err != nil {
		return err
	}

	for _, col := range optionalColumns {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", tableName, col)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
		s.logger.Info("added incidents column", map[string]interface{}{"column": col})
	}
	return nil
}

func (s *Store) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, columnsSQL, tableName)
	if err != nil {
		return nil, fmt.Errorf("read incidents columns: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Create inserts the incident and sets its ID, Status and CreatedAt.
func (s *Store) Create(ctx context.Context, inc *models.Incident) (int64, error) {
	if inc == nil {
		return 0, fmt.Errorf("incident cannot be nil")
	}
	if inc.Status == "" {
		inc.Status = models.StatusOpen
	}
	if !models.IsValidStatus(inc.Status) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, inc.Status)
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = s.now().UTC()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, insertSQL,
		nullString(inc.Title),
		nullString(inc.Description),
		nullString(inc.Severity),
		nullString(inc.Category),
		nullString(inc.Priority),
		nullString(inc.Status),
		nullString(inc.Metadata),
		nullString(inc.Phone),
		nullString(inc.WebsiteType),
		nullString(inc.IncidentFrequency),
		nullString(inc.ServiceAffected),
		nullString(inc.RootCauseCategory),
		nullString(inc.Tags),
		inc.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert incident: %w", err)
	}

	inc.ID = id
	return id, nil
}

// List returns every incident, newest first.
func (s *Store) List(ctx context.Context) ([]models.Incident, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]models.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

// Get returns one incident, consulting the cache first when configured.
func (s *Store) Get(ctx context.Context, id int64) (*models.Incident, error) {
	if inc, ok := s.cached(ctx, id); ok {
		return inc, nil
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inc, err := scanIncident(s.db.QueryRowContext(qctx, getSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrIncidentNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	s.store(ctx, inc)
	return inc, nil
}

// UpdateStatus changes the lifecycle status and replaces the cached copy with
// a tombstone that outlives any read started before the update.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(qctx, updateStatusSQL, status, id)
	if err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrIncidentNotFound, id)
	}

	s.invalidate(ctx, id)
	return nil
}

// Reset deletes every incident, restarts the ID sequence and clears cached entries.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, resetSQL); err != nil {
		return fmt.Errorf("reset incidents: %w", err)
	}

	if s.cache == nil {
		return nil
	}
	iter := s.cache.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("cache delete failed", map[string]interface{}{"key": iter.Val(), "error": err})
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("cache scan failed", map[string]interface{}{"error": err})
	}
	return nil
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}

func (s *Store) cached(ctx context.Context, id int64) (*models.Incident, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, cacheKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", map[string]interface{}{"incidentId": id, "error": err})
		}
		return nil, false
	}
	if val == tombstone {
		return nil, false
	}

	var inc models.Incident
	if err := json.Unmarshal([]byte(val), &inc); err != nil {
		s.logger.Warn("discarding malformed cache entry", map[string]interface{}{"incidentId": id, "error": err})
		return nil, false
	}
	return &inc, true
}

func (s *Store) store(ctx context.Context, inc *models.Incident) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(inc)
	if err != nil {
		return
	}
	if err := s.cache.SetNX(ctx, cacheKey(inc.ID), data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"incidentId": inc.ID, "error": err})
	}
}

func (s *Store) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(id), tombstone, s.tombstoneTTL()).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{"incidentId": id, "error": err})
	}
}

func (s *Store) tombstoneTTL() time.Duration {
	if ttl := 2 * s.queryTimeout; ttl > minTombstoneTTL {
		return ttl
	}
	return minTombstoneTTL
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row scanner) (*models.Incident, error) {
	var (
		inc  models.Incident
		text [13]sql.NullString
	)
	dest := make([]interface{}, 0, 15)
	dest = append(dest, &inc.ID)
	for i := range text {
		dest = append(dest, &text[i])
	}
	dest = append(dest, &inc.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan incident: %w", err)
	}

	fields := []*string{
		&inc.Title, &inc.Description, &inc.Severity, &inc.Category, &inc.Priority,
		&inc.Status, &inc.Metadata, &inc.Phone, &inc.WebsiteType, &inc.IncidentFrequency,
		&inc.ServiceAffected, &inc.RootCauseCategory, &inc.Tags,
	}
	for i, f := range fields {
		*f = text[i].String
	}
	inc.CreatedAt = inc.CreatedAt.UTC()
	return &inc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
