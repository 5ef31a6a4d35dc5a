package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"circuitmap/internal/domain"
	"circuitmap/internal/repository"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// dbtx is the subset of *sql.DB and *sql.Tx the write helpers need
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		lat REAL,
		lon REAL,
		coord_x REAL,
		coord_y REAL,
		ordinal INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS site_connections (
		site_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		type TEXT NOT NULL,
		bandwidth TEXT,
		provider TEXT,
		endpoint TEXT,
		custom_provider TEXT,
		PRIMARY KEY (site_id, ordinal),
		FOREIGN KEY (site_id) REFERENCES sites(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS facilities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		ordinal INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sites_ordinal ON sites(ordinal);
	CREATE INDEX IF NOT EXISTS idx_facilities_ordinal ON facilities(ordinal);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first release
	if err := r.addColumnIfNotExists("sites", "coordinates_committed_at", "DATETIME"); err != nil {
		return err
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist
func (r *Repository) addColumnIfNotExists(table, column, colType string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}

	exists := false
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return err
		}
		if strings.EqualFold(name, column) {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if exists {
		return nil
	}

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType))
	return err
}

// ListSites returns every site with its connections, in inventory order
func (r *Repository) ListSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY ordinal, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}

	sites := make([]domain.Site, 0)
	index := make(map[string]int)
	for rows.Next() {
		var row siteRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		index[row.ID] = len(sites)
		sites = append(sites, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}
	rows.Close()

	connRows, err := r.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM site_connections ORDER BY site_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer connRows.Close()

	for connRows.Next() {
		var row connectionRow
		if err := connRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		if i, ok := index[row.SiteID]; ok {
			sites[i].Connections = append(sites[i].Connections, row.toDomain())
		}
	}
	if err := connRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return sites, nil
}

// GetSite returns a single site with its connections
func (r *Repository) GetSite(ctx context.Context, id string) (*domain.Site, error) {
	var row siteRow
	err := r.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = ?`, id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}

	site := row.toDomain()

	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM site_connections WHERE site_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c connectionRow
		if err := rows.Scan(c.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		site.Connections = append(site.Connections, c.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return &site, nil
}

// UpsertSite inserts or updates a site and replaces its connections. New
// sites go to the end of the inventory order. Coordinates are only
// overwritten when the site carries them.
func (r *Repository) UpsertSite(ctx context.Context, site *domain.Site) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(ordinal) + 1, 0) FROM sites`).Scan(&next); err != nil {
		return fmt.Errorf("failed to read site order: %w", err)
	}

	if err := upsertSite(ctx, tx, site, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertSite(ctx context.Context, q dbtx, site *domain.Site, ordinal int) error {
	lat, lon := geoToNull(site.Location)
	x, y := pointToNull(site.Coordinates)

	_, err := q.ExecContext(ctx, `
		INSERT INTO sites (id, name, category, lat, lon, coord_x, coord_y, ordinal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			lat = excluded.lat,
			lon = excluded.lon,
			coord_x = COALESCE(excluded.coord_x, sites.coord_x),
			coord_y = COALESCE(excluded.coord_y, sites.coord_y),
			updated_at = CURRENT_TIMESTAMP
	`, site.ID, site.Name, stringToNull(site.Category), lat, lon, x, y, ordinal)
	if err != nil {
		return fmt.Errorf("failed to upsert site: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM site_connections WHERE site_id = ?`, site.ID); err != nil {
		return fmt.Errorf("failed to clear connections: %w", err)
	}

	for i, c := range site.Connections {
		_, err := q.ExecContext(ctx, `
			INSERT INTO site_connections (site_id, ordinal, type, bandwidth, provider, endpoint, custom_provider)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, site.ID, i, c.Type, stringToNull(c.Bandwidth), stringToNull(c.Provider),
			stringToNull(c.PointToPointEndpoint), stringToNull(c.CustomProvider))
		if err != nil {
			return fmt.Errorf("failed to insert connection %d of %s: %w", i, site.ID, err)
		}
	}

	return nil
}

// DeleteSite removes a site and its connections
func (r *Repository) DeleteSite(ctx context.Context, id string) error {
	// Connections will be deleted by CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return requireAffected(res, "site", id)
}

// ListFacilities returns the facility catalog in inventory order
func (r *Repository) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, lat, lon FROM facilities ORDER BY ordinal, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]domain.Facility, 0)
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Lat, &f.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facilities: %w", err)
	}

	return facilities, nil
}

// UpsertFacility inserts or updates a facility
func (r *Repository) UpsertFacility(ctx context.Context, facility *domain.Facility) error {
	return upsertFacility(ctx, r.db, facility, -1)
}

// upsertFacility writes f at ordinal, or at the end of the catalog when
// ordinal is negative
func upsertFacility(ctx context.Context, q dbtx, f *domain.Facility, ordinal int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO facilities (id, name, lat, lon, ordinal, updated_at)
		VALUES (?, ?, ?, ?,
			CASE WHEN ? < 0 THEN (SELECT COALESCE(MAX(ordinal) + 1, 0) FROM facilities) ELSE ? END,
			CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			lat = excluded.lat,
			lon = excluded.lon,
			updated_at = CURRENT_TIMESTAMP
	`, f.ID, f.Name, f.Lat, f.Lon, ordinal, ordinal)
	if err != nil {
		return fmt.Errorf("failed to upsert facility: %w", err)
	}
	return nil
}

// DeleteFacility removes a facility from the catalog
func (r *Repository) DeleteFacility(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete facility: %w", err)
	}
	return requireAffected(res, "facility", id)
}

// ReplaceInventory replaces all sites and facilities with the provided ones
func (r *Repository) ReplaceInventory(ctx context.Context, sites []domain.Site, facilities []domain.Facility) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Keep committed coordinates of sites that survive the import
	kept := make(map[string]domain.Point2D)
	rows, err := tx.QueryContext(ctx, `SELECT id, coord_x, coord_y FROM sites WHERE coord_x IS NOT NULL AND coord_y IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("failed to query coordinates: %w", err)
	}
	for rows.Next() {
		var (
			id   string
			x, y float64
		)
		if err := rows.Scan(&id, &x, &y); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan coordinates: %w", err)
		}
		kept[id] = domain.Point2D{X: x, Y: y}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating coordinates: %w", err)
	}
	rows.Close()

	// Clear existing data (order matters due to foreign keys)
	if _, err := tx.ExecContext(ctx, `DELETE FROM site_connections`); err != nil {
		return fmt.Errorf("failed to clear connections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sites`); err != nil {
		return fmt.Errorf("failed to clear sites: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM facilities`); err != nil {
		return fmt.Errorf("failed to clear facilities: %w", err)
	}

	for i := range sites {
		site := sites[i]
		if site.Coordinates == nil {
			if p, ok := kept[site.ID]; ok {
				site.Coordinates = &p
			}
		}
		if err := upsertSite(ctx, tx, &site, i); err != nil {
			return err
		}
	}

	for i := range facilities {
		if err := upsertFacility(ctx, tx, &facilities[i], i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateSiteCoordinates persists the normalized position committed at the
// end of a drag
func (r *Repository) UpdateSiteCoordinates(ctx context.Context, siteID string, p domain.Point2D) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sites SET coord_x = ?, coord_y = ?,
			coordinates_committed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.X, p.Y, siteID)
	if err != nil {
		return fmt.Errorf("failed to update coordinates for %s: %w", siteID, err)
	}
	return requireAffected(res, "site", siteID)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}
