package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
)

const (
	chatsCollection = "chats"
	usersCollection = "users"
)

// document wraps the JSON encoding of an entity.
type document struct {
	ID    string `bson:"_id"`
	Value string `bson:"value"`
}

type store struct {
	db    *DB
	chats *mongo.Collection
	users *mongo.Collection
}

func NewStore(db *DB) repo.Store {
	return &store{
		db:    db,
		chats: db.Database.Collection(chatsCollection),
		users: db.Database.Collection(usersCollection),
	}
}

func findValue(ctx context.Context, coll *mongo.Collection, id string) ([]byte, error) {
	var doc document
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", coll.Name(), id, err)
	}
	return []byte(doc.Value), nil
}

func replaceValue(ctx context.Context, coll *mongo.Collection, id string, value []byte) error {
	doc := document{ID: id, Value: string(value)}
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", coll.Name(), id, err)
	}
	return nil
}

func (s *store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	data, err := findValue(ctx, s.chats, id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeChat(data)
}

func (s *store) SaveChat(ctx context.Context, chat *models.Chat) error {
	data, err := repo.EncodeChat(chat)
	if err != nil {
		return err
	}
	return replaceValue(ctx, s.chats, chat.ID, data)
}

func (s *store) GetUser(ctx context.Context, id string) (*models.User, error) {
	data, err := findValue(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeUser(data)
}

func (s *store) SaveUser(ctx context.Context, user *models.User) error {
	data, err := repo.EncodeUser(user)
	if err != nil {
		return err
	}
	return replaceValue(ctx, s.users, user.ID, data)
}

func (s *store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}
