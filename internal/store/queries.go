// internal/store/queries.go
package store

const tableName = "incidents"

const createTableSQL = `CREATE TABLE IF NOT EXISTS incidents (
	id BIGSERIAL PRIMARY KEY,
	title TEXT,
	description TEXT,
	severity TEXT,
	category TEXT,
	priority TEXT,
	status TEXT,
	metadata TEXT,
	phone TEXT,
	website_type TEXT,
	incident_frequency TEXT,
	service_affected TEXT,
	root_cause_category TEXT,
	tags TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const columnsSQL = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`

// optionalColumns were added after the first schema; older tables may lack them.
var optionalColumns = []string{
	"phone",
	"website_type",
	"incident_frequency",
	"service_affected",
	"root_cause_category",
	"tags",
}

const selectColumns = `id, title, description, severity, category, priority, status, metadata, phone, website_type, incident_frequency, service_affected, root_cause_category, tags, created_at`

const insertSQL = `INSERT INTO incidents (title, description, severity, category, priority, status, metadata, phone, website_type, incident_frequency, service_affected, root_cause_category, tags, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`

const listSQL = `SELECT ` + selectColumns + ` FROM incidents ORDER BY created_at DESC, id DESC`

const getSQL = `SELECT ` + selectColumns + ` FROM incidents WHERE id = $1`

const updateStatusSQL = `UPDATE incidents SET status = $1 WHERE id = $2`

const resetSQL = `TRUNCATE TABLE incidents RESTART IDENTITY`
