package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Poses table - stores pose definitions and matching parameters.
		// The finger mask packs the five per-finger enable flags into
		// one integer, thumb in the lowest bit.
		`CREATE TABLE IF NOT EXISTS poses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			chirality TEXT NOT NULL CHECK(chirality IN ('left', 'right')),
			finger_mask INTEGER NOT NULL DEFAULT 31,
			global_tolerance REAL NOT NULL DEFAULT 20.0,
			hysteresis_margin REAL NOT NULL DEFAULT 5.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pose joints table - the recorded skeleton. The wrist is
		// stored under finger -1. Only present bones get a row.
		`CREATE TABLE IF NOT EXISTS pose_joints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			finger INTEGER NOT NULL,
			bone INTEGER NOT NULL,
			qw REAL NOT NULL, qx REAL NOT NULL, qy REAL NOT NULL, qz REAL NOT NULL,
			px REAL NOT NULL, py REAL NOT NULL, pz REAL NOT NULL
		)`,

		// Pose thresholds table - per-joint pitch/yaw tolerances.
		// Joints without a row fall back to the global tolerance.
		`CREATE TABLE IF NOT EXISTS pose_thresholds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			finger INTEGER NOT NULL,
			bone INTEGER NOT NULL,
			pitch REAL NOT NULL,
			yaw REAL NOT NULL
		)`,

		// Pose constraints table - ordered direction constraints.
		// source_finger -1 selects the palm normal.
		`CREATE TABLE IF NOT EXISTS pose_constraints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			kind INTEGER NOT NULL,
			source_finger INTEGER NOT NULL,
			source_bone INTEGER NOT NULL,
			target_x REAL NOT NULL DEFAULT 0,
			target_y REAL NOT NULL DEFAULT 0,
			target_z REAL NOT NULL DEFAULT 0,
			axis INTEGER NOT NULL DEFAULT 0,
			max_angle REAL NOT NULL DEFAULT 0,
			min_dot REAL NOT NULL DEFAULT 0
		)`,

		// Actions table - stores actions to execute when poses are detected
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pose captures table - raw authoring snapshots awaiting training
		`CREATE TABLE IF NOT EXISTS pose_captures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			capture_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_pose_joints_pose_id ON pose_joints(pose_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pose_thresholds_pose_id ON pose_thresholds(pose_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pose_constraints_pose_id ON pose_constraints(pose_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_pose_id ON actions(pose_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pose_captures_pose_id ON pose_captures(pose_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
