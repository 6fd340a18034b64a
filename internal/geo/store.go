package geo

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"hivetrace/internal/types"
)

// Store persists the geo cache so restarts do not re-query the resolvers
// for IPs already seen. Reports themselves are never persisted.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if necessary creates) the cache database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS geo_cache (
		ip TEXT PRIMARY KEY,
		country TEXT,
		region TEXT,
		city TEXT,
		isp TEXT
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveAll writes the full cache snapshot in one transaction.
func (s *Store) SaveAll(records map[string]types.GeoRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO geo_cache (ip, country, region, city, isp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for ip, rec := range records {
		if _, err := stmt.Exec(ip, rec.Country, rec.Region, rec.City, rec.ISP); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadAll reads every persisted record.
func (s *Store) LoadAll() (map[string]types.GeoRecord, error) {
	rows, err := s.db.Query("SELECT ip, country, region, city, isp FROM geo_cache")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]types.GeoRecord)
	for rows.Next() {
		var rec types.GeoRecord
		if err := rows.Scan(&rec.IP, &rec.Country, &rec.Region, &rec.City, &rec.ISP); err != nil {
			continue
		}
		records[rec.IP] = rec
	}

	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
