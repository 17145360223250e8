package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: managed objects and associations
	{
		`CREATE TABLE managed_objects (
			po_id INTEGER PRIMARY KEY AUTOINCREMENT,
			bucket TEXT NOT NULL DEFAULT '',
			namespace TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			fdn TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			entity_address_info_id INTEGER,
			created_at TEXT NOT NULL,
			UNIQUE (bucket, fdn)
		)`,
		`CREATE INDEX idx_managed_objects_fdn ON managed_objects(fdn)`,

		`CREATE TABLE associations (
			bucket TEXT NOT NULL DEFAULT '',
			from_po_id INTEGER NOT NULL,
			to_po_id INTEGER NOT NULL,
			endpoint_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (bucket, from_po_id, to_po_id, endpoint_name),
			FOREIGN KEY (from_po_id) REFERENCES managed_objects(po_id) ON DELETE CASCADE,
			FOREIGN KEY (to_po_id) REFERENCES managed_objects(po_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_assoc_to ON associations(to_po_id)`,
	},
	// Migration 2: naming registry and DPS sessions
	{
		`CREATE TABLE naming_bindings (
			name TEXT PRIMARY KEY,
			interface TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			closed_at TEXT
		)`,
	},
}
