package social

import (
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
)

// Account positions per instruction.
const (
	profileAccount = 0
	ownerAccount   = 1

	postAccount   = 0
	authorAccount = 1
	memoAccount   = 2

	messageAccount   = 0
	senderAccount    = 1
	recipientProfile = 2

	readerAccount = 1
)

func (p *Program) initialize(ic *runtime.InstructionContext, args []byte) error {
	return argsEnd(args, 0, InstructionInitialize)
}

// createProfile: [profile (w), owner (signer)].
func (p *Program) createProfile(ic *runtime.InstructionContext, args []byte) error {
	a, err := decodeCreateProfileArgs(args)
	if err != nil {
		return err
	}
	if err := requireAccounts(ic, 2); err != nil {
		return err
	}
	if err := ValidateUsername(a.Username); err != nil {
		return err
	}
	if err := ValidateBio(a.Bio); err != nil {
		return err
	}
	if err := ValidateAvatar(a.Avatar); err != nil {
		return err
	}
	owner := account(ic, ownerAccount)
	if err := RequireSigner(ic.Credentials(), owner); err != nil {
		return err
	}

	profile := Profile{
		Owner:           owner,
		Username:        a.Username,
		Bio:             a.Bio,
		AvatarReference: a.Avatar,
		CreatedAt:       ic.Now(),
		UpdatedAt:       ic.Now(),
	}
	data, err := profile.Encode()
	if err != nil {
		return err
	}
	_, err = ic.CreateDerived(profileAccount, ProfileSpace, data, profileSeeds(owner)...)
	return err
}

// updateProfile: [profile (w), owner (signer)]. Every present field is
// validated before any is applied; absent fields are left untouched.
func (p *Program) updateProfile(ic *runtime.InstructionContext, args []byte) error {
	a, err := decodeUpdateProfileArgs(args)
	if err != nil {
		return err
	}
	if err := requireAccounts(ic, 2); err != nil {
		return err
	}
	profile, err := loadProfile(ic, profileAccount)
	if err != nil {
		return err
	}
	if err := requireActor(ic.Credentials(), account(ic, ownerAccount), profile.Owner); err != nil {
		return err
	}
	if err := ValidateProfileUpdate(a.Bio, a.Avatar); err != nil {
		return err
	}

	if a.Bio != nil {
		profile.Bio = *a.Bio
	}
	if a.Avatar != nil {
		profile.AvatarReference = *a.Avatar
	}
	// updated_at never moves backwards, even if the clock does.
	if now := ic.Now(); now > profile.UpdatedAt {
		profile.UpdatedAt = now
	}
	data, err := profile.Encode()
	if err != nil {
		return err
	}
	return ic.Write(profileAccount, data)
}

// createPost: [post (w), author (signer), logging target]. The post is
// only written after the following memo instruction has been verified.
func (p *Program) createPost(ic *runtime.InstructionContext, args []byte) error {
	a, err := decodeCreatePostArgs(args)
	if err != nil {
		return err
	}
	if err := requireAccounts(ic, 3); err != nil {
		return err
	}
	if err := ValidatePostContent(a.Content); err != nil {
		return err
	}
	if p.strictContent {
		if err := ValidateStructuralContent(a.Content); err != nil {
			return err
		}
	}
	author := account(ic, authorAccount)
	if err := RequireSigner(ic.Credentials(), author); err != nil {
		return err
	}
	ts := ic.Now()
	if err := VerifyLinkedMemo(ic.Inspector(), author, ts, a.Content); err != nil {
		return err
	}

	post := Post{
		Author:           author,
		Timestamp:        ts,
		ContentReference: account(ic, memoAccount),
	}
	data, err := post.Encode()
	if err != nil {
		return err
	}
	_, err = ic.CreateDerived(postAccount, PostSpace, data, postSeeds(author, ts)...)
	return err
}

// sendMessage: [message (w, signer), sender (signer), recipient profile].
// The recipient is taken from the profile record, never from the caller.
func (p *Program) sendMessage(ic *runtime.InstructionContext, args []byte) error {
	a, err := decodeSendMessageArgs(args)
	if err != nil {
		return err
	}
	if err := requireAccounts(ic, 3); err != nil {
		return err
	}
	if err := ValidateCiphertext(a.Ciphertext); err != nil {
		return err
	}
	sender := account(ic, senderAccount)
	if err := RequireSigner(ic.Credentials(), sender); err != nil {
		return err
	}
	profile, err := loadProfile(ic, recipientProfile)
	if err != nil {
		return err
	}
	// A message never lands on a participant's identity or on the profile.
	slot := account(ic, messageAccount)
	if slot == sender || slot == profile.Owner || slot == account(ic, recipientProfile) {
		return newError(ErrCodeMessageSlotReserved, "", "message slot %s is already named by the instruction", slot)
	}

	msg := Message{
		Sender:           sender,
		Recipient:        profile.Owner,
		EncryptedContent: a.Ciphertext,
		Timestamp:        ic.Now(),
	}
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return ic.CreateFresh(messageAccount, MessageSpace, data)
}

// markMessageRead: [message (w), recipient (signer)]. Marking an already
// read message succeeds without writing.
func (p *Program) markMessageRead(ic *runtime.InstructionContext, args []byte) error {
	if err := argsEnd(args, 0, InstructionMarkMessageRead); err != nil {
		return err
	}
	if err := requireAccounts(ic, 2); err != nil {
		return err
	}
	acct, err := loadOwned(ic, messageAccount)
	if err != nil {
		return err
	}
	msg, err := DecodeMessage(acct.Data)
	if err != nil {
		return err
	}
	if err := requireActor(ic.Credentials(), account(ic, readerAccount), msg.Recipient); err != nil {
		return err
	}
	if msg.Read {
		return nil
	}
	msg.Read = true
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return ic.Write(messageAccount, data)
}
