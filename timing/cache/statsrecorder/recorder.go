// Package statsrecorder persists a cache's teardown Stats to a SQLite
// database, in the idiom of Akita's tracing.SQLiteTraceWriter.
package statsrecorder

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/m2sim/timing/cache"
)

// Recorder writes one row per named Comp snapshot into a SQLite database.
type Recorder struct {
	*sql.DB

	dbName    string
	statement *sql.Stmt
}

// NewRecorder creates a Recorder backed by a fresh database file at path.
// It panics if the file already exists, matching the teacher's
// no-clobber trace-file convention.
func NewRecorder(path string) *Recorder {
	r := &Recorder{dbName: path}
	r.open()
	r.createTable()
	r.prepareStatement()
	return r
}

func (r *Recorder) open() {
	filename := r.dbName
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("statsrecorder: file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}
	r.DB = db
}

func (r *Recorder) createTable() {
	r.mustExecute(`
		create table cache_stats
		(
			name         varchar(200) not null,
			read_hit     integer not null,
			read_miss    integer not null,
			write_hit    integer not null,
			write_miss   integer not null,
			supply_hit   integer not null,
			supply_miss  integer not null,
			upgrade_miss integer not null
		);
	`)
}

func (r *Recorder) prepareStatement() {
	stmt, err := r.Prepare(`INSERT INTO cache_stats VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}
	r.statement = stmt
}

// Record writes name's current stats snapshot as one row.
func (r *Recorder) Record(name string, s *cache.Stats) {
	_, err := r.statement.Exec(
		name,
		s.ReadHit, s.ReadMiss,
		s.WriteHit, s.WriteMiss,
		s.SupplyHit, s.SupplyMiss,
		s.UpgradeMiss,
	)
	if err != nil {
		panic(err)
	}
}

// Close flushes the prepared statement and closes the database.
func (r *Recorder) Close() error {
	if r.statement != nil {
		_ = r.statement.Close()
	}
	return r.DB.Close()
}

func (r *Recorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		panic(err)
	}
	return res
}
