// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clipseek/clipseek/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Vectors are stored as
// little-endian float32 blobs; nearest-neighbor queries are brute-force
// cosine scans, which is adequate for the expected corpus sizes.
type SQLiteStorage struct {
	db *sql.DB
	// claimMu serializes claim selection and flagging so that the
	// select-then-update pair is atomic across workers.
	claimMu sync.Mutex
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		status_changed_at TIMESTAMP NOT NULL,
		status INTEGER NOT NULL,
		claimed INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL,
		raw_description TEXT,
		translated_description TEXT,
		transcript TEXT,
		keywords TEXT,
		stt_keywords TEXT,
		semantic_cloud TEXT,
		centroid_words TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status);
	CREATE INDEX IF NOT EXISTS idx_videos_claimed ON videos(claimed);
	CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos(created_at);
	CREATE INDEX IF NOT EXISTS idx_videos_status_changed_at ON videos(status_changed_at);

	CREATE TABLE IF NOT EXISTS keyword_vectors (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		word TEXT NOT NULL,
		vector BLOB NOT NULL,
		cluster_size INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_keyword_vectors_video_kind ON keyword_vectors(video_id, kind);

	CREATE TABLE IF NOT EXISTS word_embeddings (
		word TEXT PRIMARY KEY,
		vector BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ngrams (
		ngram TEXT PRIMARY KEY,
		total_docs INTEGER NOT NULL,
		total_count REAL NOT NULL,
		idf REAL NOT NULL,
		idf_bm25 REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ngram_docs (
		ngram TEXT NOT NULL,
		document_id TEXT NOT NULL,
		count_in_doc REAL NOT NULL,
		tf REAL NOT NULL,
		tf_bm25 REAL NOT NULL,
		score REAL NOT NULL,
		score_bm25 REAL NOT NULL,
		PRIMARY KEY (ngram, document_id)
	);
	CREATE INDEX IF NOT EXISTS idx_ngram_docs_document ON ngram_docs(document_id);
	CREATE INDEX IF NOT EXISTS idx_ngram_docs_score ON ngram_docs(score);
	CREATE INDEX IF NOT EXISTS idx_ngram_docs_score_bm25 ON ngram_docs(score_bm25);
	`
	_, err := db.Exec(schema)
	return err
}

const videoColumns = `id, created_at, status_changed_at, status, claimed, url,
	raw_description, translated_description, transcript,
	keywords, stt_keywords, semantic_cloud, centroid_words`

// CreateVideo inserts a video record.
func (s *SQLiteStorage) CreateVideo(ctx context.Context, rec *models.VideoRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.StatusChangedAt.IsZero() {
		rec.StatusChangedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (`+videoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.StatusChangedAt, int(rec.Status), rec.Claimed, rec.URL,
		nullString(rec.RawDescription), nullString(rec.TranslatedDescription), nullString(rec.Transcript),
		marshalWords(rec.Keywords), marshalWords(rec.SttKeywords),
		marshalWords(rec.SemanticCloud), marshalWords(rec.CentroidWords),
	)
	return err
}

// GetVideo returns a video record by ID.
func (s *SQLiteStorage) GetVideo(ctx context.Context, id string) (*models.VideoRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	rec, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video not found: %s", id)
	}
	return rec, err
}

// UpdateVideo updates an existing video record.
func (s *SQLiteStorage) UpdateVideo(ctx context.Context, rec *models.VideoRecord) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status_changed_at = ?, status = ?, claimed = ?,
		 raw_description = ?, translated_description = ?, transcript = ?,
		 keywords = ?, stt_keywords = ?, semantic_cloud = ?, centroid_words = ?
		 WHERE id = ?`,
		rec.StatusChangedAt, int(rec.Status), rec.Claimed,
		nullString(rec.RawDescription), nullString(rec.TranslatedDescription), nullString(rec.Transcript),
		marshalWords(rec.Keywords), marshalWords(rec.SttKeywords),
		marshalWords(rec.SemanticCloud), marshalWords(rec.CentroidWords),
		rec.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video not found: %s", rec.ID)
	}
	return nil
}

// ListVideos returns records newest first with offset and limit.
func (s *SQLiteStorage) ListVideos(ctx context.Context, offset, limit int) ([]*models.VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideos(rows)
}

// GetVideosByIDs returns the records whose IDs are in ids.
func (s *SQLiteStorage) GetVideosByIDs(ctx context.Context, ids []string) ([]*models.VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideos(rows)
}

// ListIndexed returns all records in VideoIndexed or FullIndexed status.
func (s *SQLiteStorage) ListIndexed(ctx context.Context) ([]*models.VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE status IN (?, ?)`,
		int(models.StatusVideoIndexed), int(models.StatusFullIndexed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVideos(rows)
}

// CountVideos returns the total number of video records.
func (s *SQLiteStorage) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

// CountByStatus returns the number of records in the given status.
func (s *SQLiteStorage) CountByStatus(ctx context.Context, status models.VideoStatus) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos WHERE status = ?`, int(status)).Scan(&count)
	return count, err
}

// ClaimNext selects and claims the next eligible record. Selection runs with
// a shrinking exclusion list: the first pass skips Queued, Error, and
// FullIndexed so partially-processed records advance first; the second pass
// admits fresh Queued records; the last pass admits Error records for retry.
// Within a pass the least-recently-status-changed unclaimed record wins.
func (s *SQLiteStorage) ClaimNext(ctx context.Context) (*models.VideoRecord, error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	exclude := []models.VideoStatus{
		models.StatusQueued,
		models.StatusError,
		models.StatusFullIndexed,
	}
	for len(exclude) > 0 {
		rec, err := s.nextUnclaimed(ctx, exclude)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			rec.Claimed = true
			if _, err := s.db.ExecContext(ctx,
				`UPDATE videos SET claimed = 1 WHERE id = ?`, rec.ID); err != nil {
				return nil, fmt.Errorf("failed to flag claim: %w", err)
			}
			return rec, nil
		}
		exclude = exclude[1:]
	}
	return nil, nil
}

func (s *SQLiteStorage) nextUnclaimed(ctx context.Context, exclude []models.VideoStatus) (*models.VideoRecord, error) {
	placeholders := strings.Repeat("?,", len(exclude))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(exclude))
	for i, st := range exclude {
		args[i] = int(st)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos
		 WHERE claimed = 0 AND status NOT IN (`+placeholders+`)
		 ORDER BY status_changed_at ASC LIMIT 1`, args...)
	rec, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ReleaseClaim clears the claim flag of one record.
func (s *SQLiteStorage) ReleaseClaim(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE videos SET claimed = 0 WHERE id = ?`, id)
	return err
}

// ReleaseAllClaims clears every claim flag. Called once at startup so that
// records claimed by a crashed process become schedulable again.
func (s *SQLiteStorage) ReleaseAllClaims(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE videos SET claimed = 0 WHERE claimed = 1`)
	return err
}

// ReplaceKeywordVectors deletes all vectors of (videoID, kind) and inserts
// vecs in one transaction, so no stale centroids survive re-clustering.
func (s *SQLiteStorage) ReplaceKeywordVectors(ctx context.Context, videoID string, kind models.VectorKind, vecs []*models.KeywordVector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM keyword_vectors WHERE video_id = ? AND kind = ?`,
		videoID, int(kind)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO keyword_vectors (id, video_id, word, vector, cluster_size, kind)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, v := range vecs {
		if _, err := stmt.ExecContext(ctx,
			v.ID, v.VideoID, v.Word, encodeVector(v.Vector), v.ClusterSize, int(v.Kind)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NearestKeywordVectors scans all stored vectors and returns those within
// tolerance cosine distance of query, ascending by distance, capped at limit.
func (s *SQLiteStorage) NearestKeywordVectors(ctx context.Context, query []float32, tolerance float64, limit int) ([]*VectorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT video_id, word, vector FROM keyword_vectors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*VectorMatch
	for rows.Next() {
		var videoID, word string
		var blob []byte
		if err := rows.Scan(&videoID, &word, &blob); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		d, ok := cosineDistance(query, vec)
		if !ok || d > tolerance {
			continue
		}
		matches = append(matches, &VectorMatch{VideoID: videoID, Word: word, Distance: d})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// UpsertWordEmbeddings inserts or replaces lexicon rows in one transaction.
// Entries with empty vectors are skipped.
func (s *SQLiteStorage) UpsertWordEmbeddings(ctx context.Context, embeddings []*models.WordEmbedding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO word_embeddings (word, vector) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range embeddings {
		if len(e.Vector) == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.Word, encodeVector(e.Vector)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetWordEmbedding returns the lexicon vector for word, or (nil, nil) when
// the word is unknown.
func (s *SQLiteStorage) GetWordEmbedding(ctx context.Context, word string) (*models.WordEmbedding, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM word_embeddings WHERE word = ?`, word).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.WordEmbedding{Word: word, Vector: decodeVector(blob)}, nil
}

// NearestWords returns lexicon words with cosine similarity to word of at
// least floor, descending by similarity. The word itself is excluded.
func (s *SQLiteStorage) NearestWords(ctx context.Context, word string, floor float64, limit int) ([]*WordMatch, error) {
	ref, err := s.GetWordEmbedding(ctx, word)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT word, vector FROM word_embeddings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*WordMatch
	for rows.Next() {
		var w string
		var blob []byte
		if err := rows.Scan(&w, &blob); err != nil {
			return nil, err
		}
		if w == word {
			continue
		}
		d, ok := cosineDistance(ref.Vector, decodeVector(blob))
		if !ok {
			continue
		}
		if sim := 1.0 - d; sim >= floor {
			matches = append(matches, &WordMatch{Word: w, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetOrCreateNgram returns the global stat row for ngram, creating a zeroed
// row on first contribution.
func (s *SQLiteStorage) GetOrCreateNgram(ctx context.Context, ngram string) (*models.NgramStat, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ngrams (ngram, total_docs, total_count, idf, idf_bm25)
		 VALUES (?, 0, 0, 0, 0)`, ngram); err != nil {
		return nil, err
	}
	stat := &models.NgramStat{Ngram: ngram}
	err := s.db.QueryRowContext(ctx,
		`SELECT total_docs, total_count, idf, idf_bm25 FROM ngrams WHERE ngram = ?`,
		ngram).Scan(&stat.TotalDocs, &stat.TotalCount, &stat.IDF, &stat.IDFBM25)
	if err != nil {
		return nil, err
	}
	return stat, nil
}

// UpdateNgram writes back a global stat row.
func (s *SQLiteStorage) UpdateNgram(ctx context.Context, stat *models.NgramStat) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ngrams SET total_docs = ?, total_count = ?, idf = ?, idf_bm25 = ?
		 WHERE ngram = ?`,
		stat.TotalDocs, stat.TotalCount, stat.IDF, stat.IDFBM25, stat.Ngram)
	return err
}

// GetNgramDoc returns the per-document stat row, or (nil, nil) when absent.
func (s *SQLiteStorage) GetNgramDoc(ctx context.Context, ngram, documentID string) (*models.NgramDocStat, error) {
	stat := &models.NgramDocStat{Ngram: ngram, DocumentID: documentID}
	err := s.db.QueryRowContext(ctx,
		`SELECT count_in_doc, tf, tf_bm25, score, score_bm25
		 FROM ngram_docs WHERE ngram = ? AND document_id = ?`,
		ngram, documentID).Scan(&stat.CountInDoc, &stat.TF, &stat.TFBM25, &stat.Score, &stat.ScoreBM25)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stat, nil
}

// UpsertNgramDoc inserts or replaces a per-document stat row.
func (s *SQLiteStorage) UpsertNgramDoc(ctx context.Context, stat *models.NgramDocStat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ngram_docs
		 (ngram, document_id, count_in_doc, tf, tf_bm25, score, score_bm25)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stat.Ngram, stat.DocumentID, stat.CountInDoc, stat.TF, stat.TFBM25, stat.Score, stat.ScoreBM25)
	return err
}

// SumDocCounts returns the document length in weighted n-grams.
func (s *SQLiteStorage) SumDocCounts(ctx context.Context, documentID string) (float64, error) {
	var sum sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(count_in_doc) FROM ngram_docs WHERE document_id = ?`,
		documentID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Float64, nil
}

// TopNgramDocs returns per-document stats for the given n-grams, descending
// by the requested score column, capped at limit.
func (s *SQLiteStorage) TopNgramDocs(ctx context.Context, ngrams []string, limit int, bm25 bool) ([]*models.NgramDocStat, error) {
	if len(ngrams) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ngrams))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(ngrams)+1)
	for _, g := range ngrams {
		args = append(args, g)
	}
	args = append(args, limit)
	orderBy := "score"
	if bm25 {
		orderBy = "score_bm25"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ngram, document_id, count_in_doc, tf, tf_bm25, score, score_bm25
		 FROM ngram_docs WHERE ngram IN (`+placeholders+`)
		 ORDER BY `+orderBy+` DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*models.NgramDocStat
	for rows.Next() {
		stat := &models.NgramDocStat{}
		if err := rows.Scan(&stat.Ngram, &stat.DocumentID, &stat.CountInDoc,
			&stat.TF, &stat.TFBM25, &stat.Score, &stat.ScoreBM25); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*models.VideoRecord, error) {
	rec := &models.VideoRecord{}
	var status int
	var raw, translated, transcript sql.NullString
	var keywords, sttKeywords, cloud, centroids sql.NullString
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.StatusChangedAt, &status, &rec.Claimed, &rec.URL,
		&raw, &translated, &transcript,
		&keywords, &sttKeywords, &cloud, &centroids)
	if err != nil {
		return nil, err
	}
	rec.Status = models.VideoStatus(status)
	rec.RawDescription = fromNull(raw)
	rec.TranslatedDescription = fromNull(translated)
	rec.Transcript = fromNull(transcript)
	rec.Keywords = unmarshalWords(keywords)
	rec.SttKeywords = unmarshalWords(sttKeywords)
	rec.SemanticCloud = unmarshalWords(cloud)
	rec.CentroidWords = unmarshalWords(centroids)
	return rec, nil
}

func scanVideos(rows *sql.Rows) ([]*models.VideoRecord, error) {
	var recs []*models.VideoRecord
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func marshalWords(words []string) interface{} {
	if words == nil {
		return nil
	}
	data, err := json.Marshal(words)
	if err != nil {
		return nil
	}
	return string(data)
}

func unmarshalWords(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var words []string
	if err := json.Unmarshal([]byte(s.String), &words); err != nil {
		return nil
	}
	return words
}
