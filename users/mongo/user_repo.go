// Package mongo keeps each user as one MongoDB document. Tokens are an array
// on that document and change only through $push, $pull and $set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "users"

var _ users.UserRepo = (*UserRepo)(nil)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Age          int       `bson:"age"`
	PasswordHash string    `bson:"password_hash"`
	Tokens       []string  `bson:"tokens"`
	Avatar       []byte    `bson:"avatar,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDocument) toUser() *users.User {
	return &users.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Age:          d.Age,
		PasswordHash: d.PasswordHash,
		Tokens:       d.Tokens,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func newDocument(u *users.User) userDocument {
	tokens := u.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	return userDocument{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Age:          u.Age,
		PasswordHash: u.PasswordHash,
		Tokens:       tokens,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// profileProjection leaves the avatar out of ordinary reads
var profileProjection = bson.D{{Key: "avatar", Value: 0}}

type UserRepo struct {
	coll   *mongo.Collection
	client *mongo.Client
}

// Open connects to uri, selects database and makes sure the unique email index exists
func Open(ctx context.Context, uri, database string) (*UserRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	repo := NewUserRepo(client.Database(database).Collection(collectionName))
	repo.client = client
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func NewUserRepo(coll *mongo.Collection) *UserRepo {
	return &UserRepo{coll: coll}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// Close disconnects the client created by Open
func (r *UserRepo) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, newDocument(user)); err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	user.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return r.updateOne(ctx, user.ID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: user.Name},
		{Key: "email", Value: user.Email},
		{Key: "age", Value: user.Age},
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}})
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D) (*users.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(profileProjection)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.toUser(), nil
}

func (r *UserRepo) AppendToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, bson.D{{Key: "$push", Value: bson.D{{Key: "tokens", Value: token}}}})
}

func (r *UserRepo) RemoveToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, bson.D{{Key: "$pull", Value: bson.D{{Key: "tokens", Value: token}}}})
}

func (r *UserRepo) ClearTokens(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "tokens", Value: bson.A{}}}}})
}

func (r *UserRepo) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	if avatar == nil {
		return r.updateOne(ctx, id, bson.D{{Key: "$unset", Value: bson.D{{Key: "avatar", Value: ""}}}})
	}
	return r.updateOne(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "avatar", Value: avatar}}}})
}

func (r *UserRepo) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	var doc struct {
		Avatar []byte `bson:"avatar"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "avatar", Value: 1}})
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	if len(doc.Avatar) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return doc.Avatar, nil
}

func (r *UserRepo) updateOne(ctx context.Context, id string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrDuplicateEmail
	}
	return fmt.Errorf("mongo error: %w", err)
}
