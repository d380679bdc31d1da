package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// FileStatus is the lifecycle state of a File record.
type FileStatus string

const (
	FileDiscovered FileStatus = "discovered"
	FileQueued     FileStatus = "queued"
	FileExtracting FileStatus = "extracting"
	FileIndexed    FileStatus = "indexed"
	FileFailed     FileStatus = "failed"
	FileSkipped    FileStatus = "skipped"
)

// FileRecord mirrors spec.md §3's File entity.
type FileRecord struct {
	ID           string
	Path         string
	Extension    string
	Size         int64
	ModTime      time.Time
	Status       FileStatus
	LastError    string
	DiscoveredAt time.Time
	IndexedAt    sql.NullTime
}

// UpsertFile inserts a file or, if the path already exists, updates its
// mutable fields, returning the resolved record. The status is written as
// given; no ordering of status transitions is enforced here.
func (s *Store) UpsertFile(f FileRecord) (FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getFileByPathLocked(f.Path)
	if err == nil {
		f.ID = existing.ID
		f.DiscoveredAt = existing.DiscoveredAt
		_, err := s.db.Exec(`UPDATE files SET extension=?, size=?, mod_time=?, status=?, last_error=? WHERE id=?`,
			f.Extension, f.Size, f.ModTime, f.Status, f.LastError, f.ID)
		if err != nil {
			return FileRecord{}, fmt.Errorf("update file: %w", err)
		}
		return f, nil
	}

	if f.DiscoveredAt.IsZero() {
		f.DiscoveredAt = time.Now()
	}
	_, err = s.db.Exec(`INSERT INTO files (id, path, extension, size, mod_time, status, last_error, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Path, f.Extension, f.Size, f.ModTime, f.Status, f.LastError, f.DiscoveredAt)
	if err != nil {
		return FileRecord{}, fmt.Errorf("insert file: %w", err)
	}
	return f, nil
}

// GetFileByID looks up a file by its stable identifier.
func (s *Store) GetFileByID(id string) (FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, path, extension, size, mod_time, status, last_error, discovered_at, indexed_at FROM files WHERE id=?`, id)
	return scanFile(row)
}

// GetFileByPath looks up a file by its path.
func (s *Store) GetFileByPath(path string) (FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getFileByPathLocked(path)
}

func (s *Store) getFileByPathLocked(path string) (FileRecord, error) {
	row := s.db.QueryRow(`SELECT id, path, extension, size, mod_time, status, last_error, discovered_at, indexed_at FROM files WHERE path=?`, path)
	return scanFile(row)
}

func scanFile(row *sql.Row) (FileRecord, error) {
	var f FileRecord
	var status string
	err := row.Scan(&f.ID, &f.Path, &f.Extension, &f.Size, &f.ModTime, &status, &f.LastError, &f.DiscoveredAt, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return FileRecord{}, ErrFileNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("scan file: %w", err)
	}
	f.Status = FileStatus(status)
	return f, nil
}

// MarkIndexed sets status=indexed and stamps indexed_at.
func (s *Store) MarkIndexed(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE files SET status=?, indexed_at=? WHERE id=?`, FileIndexed, time.Now(), fileID)
	return err
}

// MarkFailed records an extraction failure against a file.
func (s *Store) MarkFailed(fileID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE files SET status=?, last_error=? WHERE id=?`, FileFailed, errMsg, fileID)
	return err
}

// MarkSkipped performs the watcher's soft delete: the file record is
// marked skipped but its chunks and entities are retained.
func (s *Store) MarkSkipped(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE files SET status=? WHERE id=?`, FileSkipped, fileID)
	return err
}

// IterFiles returns all files with the given status, or all files if status is "".
func (s *Store) IterFiles(status FileStatus) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(`SELECT id, path, extension, size, mod_time, status, last_error, discovered_at, indexed_at FROM files ORDER BY path`)
	} else {
		rows, err = s.db.Query(`SELECT id, path, extension, size, mod_time, status, last_error, discovered_at, indexed_at FROM files WHERE status=? ORDER BY path`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var f FileRecord
		var st string
		if err := rows.Scan(&f.ID, &f.Path, &f.Extension, &f.Size, &f.ModTime, &st, &f.LastError, &f.DiscoveredAt, &f.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		f.Status = FileStatus(st)
		out = append(out, f)
	}
	return out, rows.Err()
}
