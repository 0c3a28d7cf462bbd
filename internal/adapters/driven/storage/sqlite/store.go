// Package sqlite provides a unified SQLite-backed store for documents,
// collections, relationship edges and chunk embeddings. It is the
// relational variant of the vector store: embeddings are stored as
// little-endian float32 blobs and scored with an exact cosine scan after
// metadata filter pushdown.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/corpus/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// store interfaces through wrapper types.
type Store struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.corpus/data/corpus.db.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		dimensions: dimensions,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// CollectionStore returns a CollectionStore interface backed by this store.
func (s *Store) CollectionStore() driven.CollectionStore {
	return &collectionStore{store: s}
}

// RelationshipStore returns a RelationshipStore interface backed by this store.
func (s *Store) RelationshipStore() driven.RelationshipStore {
	return &relationshipStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, filename, content, status, error_reason, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			filename = excluded.filename,
			content = excluded.content,
			status = excluded.status,
			error_reason = excluded.error_reason,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.UserID, doc.Filename, doc.Content, string(doc.Status),
		doc.ErrorReason, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, filename, content, status, error_reason, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// ListDocuments returns documents for a user. An empty userID lists all.
func (s *documentStore) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	query := `
		SELECT id, user_id, filename, content, status, error_reason, metadata, created_at, updated_at
		FROM documents`
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document, replacing any previous set.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", chunks[0].DocumentID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, metadata)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			chunk.Position, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.Position, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, position, metadata
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var metadataJSON string
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.Position, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
	}

	return &chunk, nil
}

// DeleteChunks removes all chunks for a document.
func (s *documentStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Content,
		&status, &doc.ErrorReason, &metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// scanDocumentRows scans a document from a multi-row result.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string
	var createdAt, updatedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Content,
		&status, &doc.ErrorReason, &metadataJSON, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// ==================== Collection Store ====================

// collectionStore implements driven.CollectionStore.
type collectionStore struct {
	store *Store
}

var _ driven.CollectionStore = (*collectionStore)(nil)

// SaveCollection stores or updates a collection.
func (s *collectionStore) SaveCollection(ctx context.Context, c *domain.Collection) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collections (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name
	`, c.ID, c.UserID, c.Name, c.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// GetCollection retrieves a collection by ID.
func (s *collectionStore) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at FROM collections WHERE id = ?
	`, id)

	var c domain.Collection
	var createdAt sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}

	return &c, nil
}

// ListCollections returns collections for a user.
func (s *collectionStore) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	query := "SELECT id, user_id, name, created_at FROM collections"
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Collection
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		collections = append(collections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}

	return collections, nil
}

// DeleteCollection removes a collection and its associations.
func (s *collectionStore) DeleteCollection(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// AddDocument associates a document with a collection.
func (s *collectionStore) AddDocument(ctx context.Context, collectionID, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collection_documents (collection_id, document_id)
		VALUES (?, ?)
		ON CONFLICT(collection_id, document_id) DO NOTHING
	`, collectionID, documentID)

	if err != nil {
		return fmt.Errorf("adding collection document: %w", err)
	}
	return nil
}

// RemoveDocument removes the association.
func (s *collectionStore) RemoveDocument(ctx context.Context, collectionID, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM collection_documents WHERE collection_id = ? AND document_id = ?",
		collectionID, documentID)
	if err != nil {
		return fmt.Errorf("removing collection document: %w", err)
	}
	return nil
}

// ListDocumentIDs returns the ids of documents in a collection.
func (s *collectionStore) ListDocumentIDs(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT document_id FROM collection_documents WHERE collection_id = ? ORDER BY document_id",
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("querying collection documents: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collection documents: %w", err)
	}

	return ids, nil
}

// ==================== Relationship Store ====================

// relationshipStore implements driven.RelationshipStore.
type relationshipStore struct {
	store *Store
}

var _ driven.RelationshipStore = (*relationshipStore)(nil)

// SaveEdge stores or updates an edge.
func (s *relationshipStore) SaveEdge(ctx context.Context, edge *domain.Relationship) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO relationships (id, from_chunk_id, to_chunk_id, type, weight)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			from_chunk_id = excluded.from_chunk_id,
			to_chunk_id = excluded.to_chunk_id,
			type = excluded.type,
			weight = excluded.weight
	`, edge.ID, edge.FromChunkID, edge.ToChunkID, edge.Type, edge.Weight)

	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

// Neighbours returns all edges originating from any of the chunks.
func (s *relationshipStore) Neighbours(ctx context.Context, chunkIDs []string) ([]domain.Relationship, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, from_chunk_id, to_chunk_id, type, weight FROM relationships WHERE from_chunk_id IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var edges []domain.Relationship //nolint:prealloc // size unknown from query
	for rows.Next() {
		var edge domain.Relationship
		if err := rows.Scan(&edge.ID, &edge.FromChunkID, &edge.ToChunkID, &edge.Type, &edge.Weight); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}

	return edges, nil
}

// DeleteByChunks removes edges touching any of the chunks.
func (s *relationshipStore) DeleteByChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(chunkIDs)*2)
	for _, id := range chunkIDs {
		args = append(args, id)
	}
	for _, id := range chunkIDs {
		args = append(args, id)
	}

	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM relationships WHERE from_chunk_id IN ("+placeholders+") OR to_chunk_id IN ("+placeholders+")",
		args...)
	if err != nil {
		return fmt.Errorf("deleting relationships: %w", err)
	}
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore over the chunk_embeddings
// table. Filtering is pushed into SQL; similarity is an exact cosine scan
// over the filtered candidates.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert inserts or replaces records by id within one transaction.
func (s *vectorStore) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	for _, r := range records {
		if len(r.Vector) != s.store.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), s.store.dimensions)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk_embeddings (chunk_id, document_id, user_id, source_type, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			user_id = excluded.user_id,
			source_type = excluded.source_type,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, r.ID, r.Metadata["documentId"], r.Metadata["userId"],
			r.Metadata["sourceType"], float32SliceToBytes(r.Vector), string(metadataJSON), now); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteByDocument removes every record for the document.
func (s *vectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunk_embeddings WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	return nil
}

// Query returns at most k hits ordered by descending cosine similarity.
func (s *vectorStore) Query(
	ctx context.Context, vector []float32, k int, filter driven.VectorFilter,
) ([]driven.VectorHit, error) {
	if len(vector) != s.store.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(vector), s.store.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	query := "SELECT chunk_id, embedding, metadata FROM chunk_embeddings"
	var conds []string
	var args []any

	if filter.DocumentID != "" {
		conds = append(conds, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if len(filter.DocumentIDs) > 0 {
		placeholders := strings.Repeat("?,", len(filter.DocumentIDs))
		conds = append(conds, "document_id IN ("+placeholders[:len(placeholders)-1]+")")
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.SourceType != "" {
		conds = append(conds, "source_type = ?")
		args = append(args, filter.SourceType)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunkID, metadataJSON string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		var metadata map[string]string
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}

		hits = append(hits, driven.VectorHit{
			ChunkID:  chunkID,
			Score:    cosineSimilarity(vector, bytesToFloat32Slice(blob)),
			Metadata: metadata,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *vectorStore) Close() error {
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. A zero vector yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
