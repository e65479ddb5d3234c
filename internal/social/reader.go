package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// ErrContentNotFound is returned by PostContent when the creating
// transaction carries no matching memo entry.
var ErrContentNotFound = errors.New("social: post content not found")

// Reader queries committed records.
type Reader struct {
	backend store.Backend
}

// NewReader creates a Reader over backend.
func NewReader(backend store.Backend) *Reader {
	return &Reader{backend: backend}
}

// Profile returns owner's profile.
func (r *Reader) Profile(ctx context.Context, owner ledger.Address) (Profile, error) {
	slot, _, err := ProfileAddress(owner)
	if err != nil {
		return Profile{}, err
	}
	acct, err := r.read(ctx, slot)
	if err != nil {
		return Profile{}, fmt.Errorf("profile of %s: %w", owner, err)
	}
	return DecodeProfile(acct.Data)
}

// Post returns author's post created at ts.
func (r *Reader) Post(ctx context.Context, author ledger.Address, ts int64) (Post, error) {
	slot, _, err := PostAddress(author, ts)
	if err != nil {
		return Post{}, err
	}
	acct, err := r.read(ctx, slot)
	if err != nil {
		return Post{}, fmt.Errorf("post of %s at %d: %w", author, ts, err)
	}
	return DecodePost(acct.Data)
}

// Message returns the message stored at slot.
func (r *Reader) Message(ctx context.Context, slot ledger.Address) (Message, error) {
	acct, err := r.read(ctx, slot)
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", slot, err)
	}
	return DecodeMessage(acct.Data)
}

// PostContent recovers a post's text from the memo log of the transaction
// that created it.
func (r *Reader) PostContent(ctx context.Context, author ledger.Address, ts int64) (string, error) {
	slot, _, err := PostAddress(author, ts)
	if err != nil {
		return "", err
	}
	acct, err := r.read(ctx, slot)
	if err != nil {
		return "", fmt.Errorf("post of %s at %d: %w", author, ts, err)
	}
	logs, err := r.backend.ReadLogs(ctx, acct.CreatedTx)
	if err != nil {
		return "", err
	}
	for _, entry := range logs {
		if entry.Program != memo.ProgramID {
			continue
		}
		if content, ok := postContentFromPayload(entry.Data, author, ts); ok {
			return content, nil
		}
	}
	return "", fmt.Errorf("post of %s at %d: %w", author, ts, ErrContentNotFound)
}

func (r *Reader) read(ctx context.Context, slot ledger.Address) (store.Account, error) {
	acct, err := r.backend.ReadAccount(ctx, slot)
	if err != nil {
		return store.Account{}, err
	}
	if acct.Owner != ProgramID {
		return store.Account{}, newError(ErrCodeAccountOwnedByWrongProgram, "", "account %s is owned by %s", slot, acct.Owner)
	}
	return acct, nil
}
