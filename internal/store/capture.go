package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Capture represents a raw authoring snapshot stored in the database,
// awaiting training into a pose skeleton.
type Capture struct {
	ID           int64           `json:"id"`
	PoseID       string          `json:"pose_id"`
	CaptureIndex int             `json:"capture_index"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CaptureRepository provides CRUD operations for pose captures.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Append inserts captures for a pose in a single transaction,
// numbering them after any captures already stored.
func (r *CaptureRepository) Append(poseID string, captures []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(capture_index), -1) + 1 FROM pose_captures WHERE pose_id = ?`,
		poseID,
	).Scan(&next)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO pose_captures (pose_id, capture_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range captures {
		if _, err := stmt.Exec(poseID, next+i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByPoseID retrieves all captures for a given pose.
func (r *CaptureRepository) GetByPoseID(poseID string) ([]Capture, error) {
	rows, err := r.db.Query(
		`SELECT id, pose_id, capture_index, data, created_at
		 FROM pose_captures
		 WHERE pose_id = ?
		 ORDER BY capture_index`,
		poseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		var data string
		if err := rows.Scan(&c.ID, &c.PoseID, &c.CaptureIndex, &data, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Data = json.RawMessage(data)
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return captures, nil
}

// DeleteByPoseID removes all captures for a given pose.
func (r *CaptureRepository) DeleteByPoseID(poseID string) error {
	_, err := r.db.Exec(`DELETE FROM pose_captures WHERE pose_id = ?`, poseID)
	return err
}
