package social

import (
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
)

// Instruction builders. They resolve derived slots so callers only deal in
// identities.

// Initialize builds the no-op initialize instruction.
func Initialize() ledger.Instruction {
	return ledger.Instruction{Program: ProgramID, Data: tagBytes(InstructionInitialize)}
}

// CreateProfile builds create_profile for owner.
func CreateProfile(owner ledger.Address, username, bio, avatar string) (ledger.Instruction, error) {
	slot, _, err := ProfileAddress(owner)
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("create profile: %w", err)
	}
	return ledger.Instruction{
		Program: ProgramID,
		Accounts: []ledger.AccountMeta{
			{Address: slot, Writable: true},
			{Address: owner, Writable: true},
		},
		Data: CreateProfileArgs{Username: username, Bio: bio, Avatar: avatar}.encode(),
	}, nil
}

// UpdateProfile builds update_profile. Nil fields are left unchanged.
func UpdateProfile(owner ledger.Address, bio, avatar *string) (ledger.Instruction, error) {
	slot, _, err := ProfileAddress(owner)
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("update profile: %w", err)
	}
	return ledger.Instruction{
		Program: ProgramID,
		Accounts: []ledger.AccountMeta{
			{Address: slot, Writable: true},
			{Address: owner},
		},
		Data: UpdateProfileArgs{Bio: bio, Avatar: avatar}.encode(),
	}, nil
}

// CreatePost builds create_post alone. ts must equal the time the
// transaction executes at. contentRef is stored as the post's
// content_reference.
func CreatePost(author ledger.Address, ts int64, content string, contentRef ledger.Address) (ledger.Instruction, error) {
	slot, _, err := PostAddress(author, ts)
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("create post: %w", err)
	}
	return ledger.Instruction{
		Program: ProgramID,
		Accounts: []ledger.AccountMeta{
			{Address: slot, Writable: true},
			{Address: author, Writable: true},
			{Address: contentRef},
		},
		Data: CreatePostArgs{Content: content}.encode(),
	}, nil
}

// CreatePostWithMemo builds the linked pair: create_post followed by the
// memo instruction carrying the canonical payload. The memo program is the
// logging target, and the author is listed as the memo signer.
func CreatePostWithMemo(author ledger.Address, ts int64, content string) ([]ledger.Instruction, error) {
	post, err := CreatePost(author, ts, content, memo.ProgramID)
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{
		post,
		memo.Instruction(CanonicalPostPayload(author, ts, content), author),
	}, nil
}

// SendMessage builds send_message into the fresh slot message, addressed to
// the profile of recipient. The message slot's key must sign.
func SendMessage(sender, message, recipient ledger.Address, ciphertext string) (ledger.Instruction, error) {
	profile, _, err := ProfileAddress(recipient)
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("send message: %w", err)
	}
	return ledger.Instruction{
		Program: ProgramID,
		Accounts: []ledger.AccountMeta{
			{Address: message, Writable: true},
			{Address: sender, Writable: true},
			{Address: profile},
		},
		Data: SendMessageArgs{Ciphertext: ciphertext}.encode(),
	}, nil
}

// MarkMessageRead builds mark_message_read.
func MarkMessageRead(message, recipient ledger.Address) ledger.Instruction {
	return ledger.Instruction{
		Program: ProgramID,
		Accounts: []ledger.AccountMeta{
			{Address: message, Writable: true},
			{Address: recipient},
		},
		Data: tagBytes(InstructionMarkMessageRead),
	}
}
