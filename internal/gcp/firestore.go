package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/scantranscribe/internal/models"
	"google.golang.org/api/iterator"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// UpdateFields applies field updates to a document. Empty string values are
// skipped so callers can pass optional details unconditionally.
func UpdateFields(ctx context.Context, docRef *firestore.DocumentRef, fields map[string]interface{}) error {
	var updates []firestore.Update
	for path, value := range fields {
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := docRef.Update(ctx, updates)
	return err
}

// DocumentStore keeps transcription records in one Firestore collection.
type DocumentStore struct {
	client     *firestore.Client
	collection string
}

// NewDocumentStore returns a store over client's collection.
func NewDocumentStore(client *firestore.Client, collection string) *DocumentStore {
	return &DocumentStore{client: client, collection: collection}
}

// FindCompleted returns the ID of a COMPLETED record for fileHash, if any.
func (s *DocumentStore) FindCompleted(ctx context.Context, fileHash string) (string, bool, error) {
	iter := s.client.Collection(s.collection).
		Where("fileHash", "==", fileHash).
		Where("status", "==", models.StatusCompleted).
		Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	return snap.Ref.ID, true, nil
}

// Create adds a new record and returns its ID.
func (s *DocumentStore) Create(ctx context.Context, doc models.Document) (string, error) {
	docRef, _, err := s.client.Collection(s.collection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription document: %w", err)
	}
	return docRef.ID, nil
}

// Update applies field updates to the record with the given ID.
func (s *DocumentStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return UpdateFields(ctx, s.client.Collection(s.collection).Doc(id), fields)
}
