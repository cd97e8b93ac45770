package ai

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asistanapp/panel-service/internal/domain"
)

// TranscriptStore persists assistant session transcripts.
type TranscriptStore interface {
	Append(ctx context.Context, entry *domain.AITranscriptEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.AITranscriptEntry, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type transcriptDoc struct {
	ID        string    `bson:"_id"`
	SessionID string    `bson:"session_id"`
	TenantID  string    `bson:"tenant_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	TokensIn  int       `bson:"tokens_in"`
	TokensOut int       `bson:"tokens_out"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoTranscriptStore struct {
	collection *mongo.Collection
}

// NewMongoTranscriptStore persists transcripts in MongoDB.
func NewMongoTranscriptStore(collection *mongo.Collection) TranscriptStore {
	return &mongoTranscriptStore{collection: collection}
}

func (s *mongoTranscriptStore) Append(ctx context.Context, entry *domain.AITranscriptEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	doc := transcriptDoc{
		ID:        entry.ID,
		SessionID: entry.SessionID,
		TenantID:  entry.TenantID,
		Role:      string(entry.Role),
		Content:   entry.Content,
		TokensIn:  entry.TokensIn,
		TokensOut: entry.TokensOut,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("transcripts: insert: %w", err)
	}
	return nil
}

func (s *mongoTranscriptStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.AITranscriptEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		// Take the newest entries, then restore chronological order.
		opts = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("transcripts: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transcriptDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("transcripts: decode: %w", err)
	}
	if limit > 0 {
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	}

	entries := make([]domain.AITranscriptEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.AITranscriptEntry{
			ID:        doc.ID,
			SessionID: doc.SessionID,
			TenantID:  doc.TenantID,
			Role:      domain.AIRole(doc.Role),
			Content:   doc.Content,
			TokensIn:  doc.TokensIn,
			TokensOut: doc.TokensOut,
			CreatedAt: doc.CreatedAt,
		})
	}
	return entries, nil
}

func (s *mongoTranscriptStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("transcripts: delete: %w", err)
	}
	return nil
}

type memoryTranscriptStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.AITranscriptEntry
}

// NewMemoryTranscriptStore keeps transcripts in process memory. It backs
// deployments without MongoDB and the test suite.
func NewMemoryTranscriptStore() TranscriptStore {
	return &memoryTranscriptStore{entries: make(map[string][]domain.AITranscriptEntry)}
}

func (s *memoryTranscriptStore) Append(ctx context.Context, entry *domain.AITranscriptEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SessionID] = append(s.entries[entry.SessionID], *entry)
	return nil
}

func (s *memoryTranscriptStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.AITranscriptEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[sessionID]
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}
	result := make([]domain.AITranscriptEntry, len(stored))
	copy(result, stored)
	return result, nil
}

func (s *memoryTranscriptStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
