/**
 * @description
 * MongoDB implementation of the `Repository` interface. All collections live
 * in a single database: `users`, `transactions`, `expenses`, `beneficiaries`.
 *
 * The store guarantees atomicity per single-document update only; there are
 * no multi-document transactions here. Balance safety therefore rests on
 * DebitBalance's conditional filter, not on any engine-level locking.
 */

package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

// Collection names.
const (
	usersCollection         = "users"
	transactionsCollection  = "transactions"
	expensesCollection      = "expenses"
	beneficiariesCollection = "beneficiaries"
)

// MongoRepository is the MongoDB-backed Repository.
type MongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository creates a repository bound to the given database handle.
// The handle is owned by the caller for the life of the process; the
// repository never re-initializes it.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

// EnsureIndexes creates the unique indexes the invariants rely on: account
// number and email on users, and the compound beneficiary key.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := r.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "accountNumber", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}
	_, err = r.db.Collection(beneficiariesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "accountNumber", Value: 1}, {Key: "bank", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.db.Collection(transactionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoRepository) FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"accountNumber": accountNumber})
}

func (r *MongoRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *MongoRepository) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.Collection(usersCollection).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "accountNumber") {
			return ErrDuplicateAccount
		}
		return ErrDuplicateEmail
	}
	return err
}

func (r *MongoRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	count, err := r.db.Collection(usersCollection).CountDocuments(ctx, bson.M{"accountNumber": accountNumber})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRepository) UpdateUserFields(ctx context.Context, accountNumber string, fields map[string]interface{}) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"accountNumber": accountNumber},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error {
	res, err := r.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) SetBlocked(ctx context.Context, accountNumber string, blocked bool) error {
	return r.UpdateUserFields(ctx, accountNumber, map[string]interface{}{"blocked": blocked})
}

func (r *MongoRepository) DeleteUser(ctx context.Context, accountNumber string) error {
	res, err := r.db.Collection(usersCollection).DeleteOne(ctx, bson.M{"accountNumber": accountNumber})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := r.db.Collection(usersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DebitBalance decrements the balance only when it covers the amount. The
// filter and $inc execute as one document-level atomic operation, so two
// concurrent debits can never both pass a stale balance check.
func (r *MongoRepository) DebitBalance(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	var updated domain.User
	err := r.db.Collection(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"accountNumber": accountNumber, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": -amount},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing account from an uncovered amount.
		if _, findErr := r.FindUserByAccountNumber(ctx, accountNumber); findErr != nil {
			return 0, findErr
		}
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return updated.Balance, nil
}

func (r *MongoRepository) CreditBalance(ctx context.Context, accountNumber string, amount int64) (int64, error) {
	var updated domain.User
	err := r.db.Collection(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"accountNumber": accountNumber},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return updated.Balance, nil
}

func (r *MongoRepository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.db.Collection(transactionsCollection).InsertOne(ctx, tx)
	return err
}

func (r *MongoRepository) InsertExpense(ctx context.Context, expense *domain.Expense) error {
	_, err := r.db.Collection(expensesCollection).InsertOne(ctx, expense)
	return err
}

func (r *MongoRepository) UpsertBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	_, err := r.db.Collection(beneficiariesCollection).UpdateOne(ctx,
		bson.M{"user_id": b.UserID, "accountNumber": b.AccountNumber, "bank": b.Bank},
		bson.M{
			"$set": bson.M{
				"name":          b.Name,
				"bank":          b.Bank,
				"accountNumber": b.AccountNumber,
				"lastUsed":      b.LastUsed,
			},
			// String ids everywhere; without this an upsert would mint an
			// ObjectID that no longer decodes into the model.
			"$setOnInsert": bson.M{"_id": uuid.NewString()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoRepository) FindTransactionsByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	cursor, err := r.db.Collection(transactionsCollection).Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []domain.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *MongoRepository) FindTransactionsPage(ctx context.Context, q StatementQuery) ([]domain.Transaction, int64, error) {
	filter := bson.M{"user_id": q.UserID}
	if q.Type != "" {
		filter["type"] = q.Type
	}

	coll := r.db.Collection(transactionsCollection)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(q.Page-1)*int64(q.PageSize)).
		SetLimit(int64(q.PageSize)),
	)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var txs []domain.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *MongoRepository) FindBeneficiariesByUserID(ctx context.Context, userID string) ([]domain.Beneficiary, error) {
	cursor, err := r.db.Collection(beneficiariesCollection).Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "lastUsed", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []domain.Beneficiary
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) DumpAllData(ctx context.Context) (*AllData, error) {
	out := &AllData{}

	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out.Users = users

	txCursor, err := r.db.Collection(transactionsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if err := txCursor.All(ctx, &out.Transactions); err != nil {
		return nil, err
	}

	expCursor, err := r.db.Collection(expensesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if err := expCursor.All(ctx, &out.Expenses); err != nil {
		return nil, err
	}

	benCursor, err := r.db.Collection(beneficiariesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if err := benCursor.All(ctx, &out.Beneficiaries); err != nil {
		return nil, err
	}

	return out, nil
}
