package storage

import (
	"context"

	"gorm.io/gorm"
)

// TxRepos bundles transaction-scoped repositories. Every repository in the
// struct operates on the same database transaction.
type TxRepos struct {
	Users          UserRepository
	FriendRequests FriendRequestRepository
	Friendships    FriendshipRepository
	Posts          PostRepository
	Conversations  ConversationRepository
}

// TxRunner executes a function within a single database transaction.
// Multi-entity mutations (friendship plus counters, post plus likes) go
// through here so they commit or roll back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repos TxRepos) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner creates a TxRunner backed by gorm transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// RunInTx opens a transaction and hands tx-scoped repositories to fn.
// An error from fn rolls the whole transaction back.
func (r *gormTxRunner) RunInTx(ctx context.Context, fn func(repos TxRepos) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Users:          NewGormUserRepository(tx),
			FriendRequests: NewGormFriendRequestRepository(tx),
			Friendships:    NewGormFriendshipRepository(tx),
			Posts:          NewGormPostRepository(tx),
			Conversations:  NewGormConversationRepository(tx),
		})
	})
}
