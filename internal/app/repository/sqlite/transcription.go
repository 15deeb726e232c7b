package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"audioscribe/internal/app/model"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcriptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    file_id TEXT NOT NULL,
    file_name TEXT NOT NULL,
    status TEXT NOT NULL,
    audio_duration REAL NOT NULL DEFAULT 0,
    transcription TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    processed_at TIMESTAMP NOT NULL
);`

type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (and if needed initializes) the history database at the
// given path.
func NewSQLiteDB(dbFilePath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbFilePath, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("create transcriptions table: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// newWithDB wires an existing connection, used by tests.
func newWithDB(db *sql.DB) *SQLiteDB {
	return &SQLiteDB{db: db}
}

func (sdb *SQLiteDB) Close() error {
	return sdb.db.Close()
}

func (sdb *SQLiteDB) RecordJob(result model.JobResult, audioDuration float64) error {
	text := ""
	if result.Transcript != nil {
		text = result.Transcript.Text
	}

	insertSQL := `INSERT INTO transcriptions (job_id, file_id, file_name, status, audio_duration, transcription, error_message, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := sdb.db.Exec(insertSQL,
		result.JobID, result.File.FileID, result.File.OriginalFilename, string(result.Status),
		audioDuration, text, result.ErrorMessage, time.Now())
	if err != nil {
		return fmt.Errorf("insert history row: %w", err)
	}
	return nil
}

func (sdb *SQLiteDB) GetRecent(n int) ([]model.Transcription, error) {
	sqlStr := `
		SELECT id, job_id, file_id, file_name, status, audio_duration, transcription, error_message, processed_at
		FROM transcriptions
		ORDER BY processed_at DESC
		LIMIT ?;`
	rows, err := sdb.db.Query(sqlStr, n)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	transcriptions := make([]model.Transcription, 0)
	for rows.Next() {
		var t model.Transcription
		err = rows.Scan(&t.ID, &t.JobID, &t.FileID, &t.FileName, &t.Status,
			&t.AudioDuration, &t.Transcription, &t.ErrorMessage, &t.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}
		transcriptions = append(transcriptions, t)
	}
	return transcriptions, rows.Err()
}

func (sdb *SQLiteDB) CheckIfFileProcessed(fileID string) (int, error) {
	query := `SELECT id FROM transcriptions WHERE file_id = ? AND status = ?`
	row := sdb.db.QueryRow(query, fileID, string(model.StatusTranscribed))
	var id int
	err := row.Scan(&id)
	return id, err
}
