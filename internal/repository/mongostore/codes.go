package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

const codesCollection = "one_time_codes"

// CodeRepository stores codes in the "one_time_codes" collection. A TTL index
// lets the server reap expired documents; expiry is still checked on use.
type CodeRepository struct {
	col *mongo.Collection
}

// NewCodeRepository ensures indexes and returns the store.
func NewCodeRepository(ctx context.Context, db *mongo.Database) (*CodeRepository, error) {
	col := db.Collection(codesCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return nil, fmt.Errorf("create codes indexes: %w", err)
	}
	return &CodeRepository{col: col}, nil
}

var _ repository.CodeRepository = (*CodeRepository)(nil)

func (r *CodeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	code.ID = uuid.NewString()
	code.CreatedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, code)
	return err
}

// GetByEmail returns the most recently created code.
func (r *CodeRepository) GetByEmail(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	var code domain.OneTimeCode
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := r.col.FindOne(ctx, bson.M{"email": email}, opts).Decode(&code); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *CodeRepository) DeleteAllByEmail(ctx context.Context, email string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"email": email})
	return err
}
