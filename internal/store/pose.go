package store

import (
	"database/sql"
	"errors"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// wristFinger is the finger column value marking the wrist row in
// pose_joints.
const wristFinger = -1

// PoseRepository provides CRUD operations for reference poses.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

// Create inserts a new pose with its skeleton, thresholds, and
// constraints in a single transaction.
func (r *PoseRepository) Create(p *pose.Pose) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO poses (id, name, chirality, finger_mask, global_tolerance, hysteresis_margin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Chirality.String(), packFingerMask(p.Fingers),
		p.GlobalTolerance, p.HysteresisMargin, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertPoseDetail(tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a pose with its full skeleton by ID.
func (r *PoseRepository) GetByID(id string) (*pose.Pose, error) {
	return r.getWhere(`id = ?`, id)
}

// GetByName retrieves a pose with its full skeleton by name.
func (r *PoseRepository) GetByName(name string) (*pose.Pose, error) {
	return r.getWhere(`name = ?`, name)
}

// List retrieves all poses, fully loaded, newest first.
func (r *PoseRepository) List() ([]*pose.Pose, error) {
	rows, err := r.db.Query(`SELECT id FROM poses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	poses := make([]*pose.Pose, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}
	return poses, nil
}

// Update rewrites an existing pose, replacing its skeleton, thresholds,
// and constraints.
func (r *PoseRepository) Update(p *pose.Pose) error {
	p.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE poses SET name = ?, chirality = ?, finger_mask = ?, global_tolerance = ?, hysteresis_margin = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Chirality.String(), packFingerMask(p.Fingers),
		p.GlobalTolerance, p.HysteresisMargin, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	for _, table := range []string{"pose_joints", "pose_thresholds", "pose_constraints"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE pose_id = ?`, p.ID); err != nil {
			return err
		}
	}
	if err := insertPoseDetail(tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a pose; joints, thresholds, constraints, captures,
// and actions cascade.
func (r *PoseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PoseRepository) getWhere(cond string, arg any) (*pose.Pose, error) {
	p := &pose.Pose{}
	var chirality string
	var mask int

	err := r.db.QueryRow(
		`SELECT id, name, chirality, finger_mask, global_tolerance, hysteresis_margin, created_at, updated_at
		 FROM poses WHERE `+cond, arg,
	).Scan(&p.ID, &p.Name, &chirality, &mask, &p.GlobalTolerance, &p.HysteresisMargin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Chirality = skeleton.ParseChirality(chirality)
	p.Fingers = unpackFingerMask(mask)

	if err := r.loadSkeleton(p); err != nil {
		return nil, err
	}
	if err := r.loadThresholds(p); err != nil {
		return nil, err
	}
	if err := r.loadConstraints(p); err != nil {
		return nil, err
	}

	// Deriving the mirror here keeps it off the per-frame path.
	p.Mirrored()

	return p, nil
}

func (r *PoseRepository) loadSkeleton(p *pose.Pose) error {
	rows, err := r.db.Query(
		`SELECT finger, bone, qw, qx, qy, qz, px, py, pz FROM pose_joints WHERE pose_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	s := &skeleton.Snapshot{Chirality: p.Chirality}
	for rows.Next() {
		var finger, boneIdx int
		var qw, qx, qy, qz, px, py, pz float64
		if err := rows.Scan(&finger, &boneIdx, &qw, &qx, &qy, &qz, &px, &py, &pz); err != nil {
			return err
		}
		bone := skeleton.Bone{
			Rotation: quat.Number{Real: qw, Imag: qx, Jmag: qy, Kmag: qz},
			Position: r3.Vec{X: px, Y: py, Z: pz},
			Present:  true,
		}
		if finger == wristFinger {
			s.Wrist = bone
		} else if finger >= 0 && finger < skeleton.NumFingers && boneIdx >= 0 && boneIdx < skeleton.BonesPerFinger {
			s.Fingers[finger][boneIdx] = bone
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	p.SetSkeleton(s)
	return nil
}

func (r *PoseRepository) loadThresholds(p *pose.Pose) error {
	rows, err := r.db.Query(
		`SELECT finger, bone, pitch, yaw FROM pose_thresholds WHERE pose_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var finger, boneIdx int
		var pitch, yaw float64
		if err := rows.Scan(&finger, &boneIdx, &pitch, &yaw); err != nil {
			return err
		}
		if finger >= 0 && finger < skeleton.NumFingers && boneIdx >= 0 && boneIdx < skeleton.BonesPerFinger {
			p.Thresholds[finger][boneIdx] = pose.Threshold{Pitch: pitch, Yaw: yaw, Set: true}
		}
	}
	return rows.Err()
}

func (r *PoseRepository) loadConstraints(p *pose.Pose) error {
	rows, err := r.db.Query(
		`SELECT enabled, kind, source_finger, source_bone, target_x, target_y, target_z, axis, max_angle, min_dot
		 FROM pose_constraints WHERE pose_id = ? ORDER BY sequence`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var enabled, kind, srcFinger, srcBone, axis int
		var tx, ty, tz, maxAngle, minDot float64
		if err := rows.Scan(&enabled, &kind, &srcFinger, &srcBone, &tx, &ty, &tz, &axis, &maxAngle, &minDot); err != nil {
			return err
		}
		c := pose.Constraint{
			Enabled:     enabled != 0,
			Kind:        pose.ConstraintKind(kind),
			Target:      r3.Vec{X: tx, Y: ty, Z: tz},
			Axis:        pose.Axis(axis),
			MaxAngleDeg: maxAngle,
			MinDot:      minDot,
		}
		if srcFinger == wristFinger {
			c.SourcePalm = true
		} else {
			c.SourceFinger = skeleton.FingerKind(srcFinger)
			c.SourceBone = skeleton.BoneKind(srcBone)
		}
		p.Constraints = append(p.Constraints, c)
	}
	return rows.Err()
}

// insertPoseDetail writes the skeleton, threshold, and constraint rows
// for a pose inside an open transaction.
func insertPoseDetail(tx *sql.Tx, p *pose.Pose) error {
	if p.Skeleton != nil {
		stmt, err := tx.Prepare(
			`INSERT INTO pose_joints (pose_id, finger, bone, qw, qx, qy, qz, px, py, pz)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		insert := func(finger, boneIdx int, b skeleton.Bone) error {
			if !b.Present {
				return nil
			}
			_, err := stmt.Exec(p.ID, finger, boneIdx,
				b.Rotation.Real, b.Rotation.Imag, b.Rotation.Jmag, b.Rotation.Kmag,
				b.Position.X, b.Position.Y, b.Position.Z)
			return err
		}

		if err := insert(wristFinger, 0, p.Skeleton.Wrist); err != nil {
			return err
		}
		for f := 0; f < skeleton.NumFingers; f++ {
			for b := 0; b < skeleton.BonesPerFinger; b++ {
				if err := insert(f, b, p.Skeleton.Fingers[f][b]); err != nil {
					return err
				}
			}
		}
	}

	for f := 0; f < skeleton.NumFingers; f++ {
		for b := 0; b < skeleton.BonesPerFinger; b++ {
			t := p.Thresholds[f][b]
			if !t.Set {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO pose_thresholds (pose_id, finger, bone, pitch, yaw) VALUES (?, ?, ?, ?, ?)`,
				p.ID, f, b, t.Pitch, t.Yaw)
			if err != nil {
				return err
			}
		}
	}

	for i, c := range p.Constraints {
		srcFinger, srcBone := int(c.SourceFinger), int(c.SourceBone)
		if c.SourcePalm {
			srcFinger, srcBone = wristFinger, 0
		}
		_, err := tx.Exec(
			`INSERT INTO pose_constraints (pose_id, sequence, enabled, kind, source_finger, source_bone, target_x, target_y, target_z, axis, max_angle, min_dot)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, boolToInt(c.Enabled), int(c.Kind), srcFinger, srcBone,
			c.Target.X, c.Target.Y, c.Target.Z, int(c.Axis), c.MaxAngleDeg, c.MinDot)
		if err != nil {
			return err
		}
	}

	return nil
}

// packFingerMask packs the per-finger enable flags, thumb lowest bit.
func packFingerMask(fingers [skeleton.NumFingers]bool) int {
	mask := 0
	for i, enabled := range fingers {
		if enabled {
			mask |= 1 << i
		}
	}
	return mask
}

func unpackFingerMask(mask int) [skeleton.NumFingers]bool {
	var fingers [skeleton.NumFingers]bool
	for i := range fingers {
		fingers[i] = mask&(1<<i) != 0
	}
	return fingers
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
