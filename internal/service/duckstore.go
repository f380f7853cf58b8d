package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// DuckStore keeps maps in a DuckDB table. The full map is stored as JSON;
// title and layer are duplicated into columns for ad hoc queries.
type DuckStore struct {
	db *sql.DB
}

const mapsSchema = `CREATE TABLE IF NOT EXISTS maps (
	uid    INTEGER PRIMARY KEY,
	title  VARCHAR NOT NULL,
	layer  VARCHAR NOT NULL,
	width  INTEGER,
	height INTEGER,
	doc    VARCHAR NOT NULL
)`

// NewDuckStore creates the maps table if needed.
func NewDuckStore(db *sql.DB) (*DuckStore, error) {
	if _, err := db.Exec(mapsSchema); err != nil {
		return nil, fmt.Errorf("creating maps table: %w", err)
	}
	return &DuckStore{db: db}, nil
}

// Load reads all maps.
func (s *DuckStore) Load() (map[int]OptionMap, error) {
	rows, err := s.db.Query("SELECT uid, doc FROM maps")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	maps := map[int]OptionMap{}
	for rows.Next() {
		var (
			uid int
			doc string
		)
		if err := rows.Scan(&uid, &doc); err != nil {
			return nil, err
		}
		var m OptionMap
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("map %d: %w", uid, err)
		}
		m.UID = uid
		maps[uid] = m
	}
	return maps, rows.Err()
}

// Put inserts or replaces a map.
func (s *DuckStore) Put(m OptionMap) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO maps VALUES (?, ?, ?, ?, ?, ?)",
		m.UID, m.Title, m.LayerType.Kind, m.Width, m.Height, string(doc))
	return err
}

// Remove deletes a map.
func (s *DuckStore) Remove(uid int) error {
	_, err := s.db.Exec("DELETE FROM maps WHERE uid = ?", uid)
	return err
}
