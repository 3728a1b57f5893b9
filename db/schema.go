// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for visits, attendance, travels, and the CRM outbox
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS visits (
	id TEXT PRIMARY KEY,
	crm_id TEXT,
	client_name TEXT NOT NULL,
	address TEXT,
	visit_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'checked_in', 'completed')),
	scheduled_at DATETIME NOT NULL,
	contact_person TEXT,
	phone TEXT,
	latitude REAL,
	longitude REAL,
	checked_in_at DATETIME,
	completed_at DATETIME,
	reason TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visits_status ON visits(status);
CREATE INDEX IF NOT EXISTS idx_visits_scheduled_at ON visits(scheduled_at);

CREATE TABLE IF NOT EXISTS visit_products (
	visit_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK(quantity >= 0),
	PRIMARY KEY (visit_id, position),
	FOREIGN KEY (visit_id) REFERENCES visits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS attendance (
	id TEXT PRIMARY KEY,
	transport_mode TEXT NOT NULL CHECK(transport_mode IN ('private', 'public')),
	vehicle_type TEXT,
	public_transport TEXT,
	odometer_reading TEXT,
	odometer_km REAL,
	odometer_photo TEXT,
	latitude REAL,
	longitude REAL,
	location_captured INTEGER NOT NULL DEFAULT 0,
	captured_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_captured_at ON attendance(captured_at DESC);

CREATE TABLE IF NOT EXISTS travels (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('active', 'completed')),
	started_at DATETIME NOT NULL,
	ended_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_travels_started_at ON travels(started_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_travels_one_active ON travels(status) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS punch_ins (
	id TEXT PRIMARY KEY,
	travel_id TEXT NOT NULL,
	at DATETIME NOT NULL,
	location TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	kind TEXT NOT NULL CHECK(kind IN ('start', 'arrival', 'departure', 'checkpoint', 'stop')),
	FOREIGN KEY (travel_id) REFERENCES travels(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_punch_ins_travel_id ON punch_ins(travel_id, at);

CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sending', 'sent', 'failed')),
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	sent_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, id);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
