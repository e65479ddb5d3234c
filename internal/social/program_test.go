package social

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/store"
)

// --- create_profile ---

func TestCreateProfile_Scenario(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")

	p := e.profile(t, alice.Address())
	assert.Equal(t, alice.Address(), p.Owner)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, "cid123", p.AvatarReference)
	assert.Equal(t, int64(startTime), p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestCreateProfile_UsernameBoundaries(t *testing.T) {
	tests := []struct {
		length int
		ok     bool
	}{
		{2, false}, {3, true}, {20, true}, {21, false},
	}
	for _, tt := range tests {
		e := newEnv(t)
		ix, err := CreateProfile(alice.Address(), strings.Repeat("u", tt.length), "", "")
		require.NoError(t, err)
		err = e.submit(keys(alice), ix)
		if tt.ok {
			assert.NoError(t, err, "length %d", tt.length)
		} else {
			assert.ErrorIs(t, err, ErrUsernameInvalid, "length %d", tt.length)
		}
	}
}

func TestCreateProfile_SecondCreateCollides(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")

	e.clock.Advance(10)
	ix, err := CreateProfile(alice.Address(), "alice2", "other", "")
	require.NoError(t, err)
	err = e.submit(keys(alice), ix)
	assert.True(t, runtime.IsAddressInUse(err))

	p := e.profile(t, alice.Address())
	assert.Equal(t, "alice", p.Username, "existing profile must not be overwritten")
	assert.Equal(t, "hi", p.Bio)
}

func TestCreateProfile_RequiresOwnerSignature(t *testing.T) {
	e := newEnv(t)
	ix, err := CreateProfile(alice.Address(), "alice", "", "")
	require.NoError(t, err)

	err = e.submit(keys(bob), ix)
	assert.True(t, IsUnauthorized(err))

	_, err = e.reader.Profile(context.Background(), alice.Address())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateProfile_FieldLimits(t *testing.T) {
	e := newEnv(t)

	ix, err := CreateProfile(alice.Address(), "alice", strings.Repeat("b", 141), "")
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrBioTooLong)

	ix, err = CreateProfile(alice.Address(), "alice", "", strings.Repeat("a", 101))
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrAvatarTooLong)

	_, err = e.reader.Profile(context.Background(), alice.Address())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateProfile_WrongSlot(t *testing.T) {
	e := newEnv(t)
	ix, err := CreateProfile(alice.Address(), "alice", "", "")
	require.NoError(t, err)

	// Point the slot at bob's profile address while alice signs.
	bobSlot, _, err := ProfileAddress(bob.Address())
	require.NoError(t, err)
	ix.Accounts[0].Address = bobSlot

	err = e.submit(keys(alice), ix)
	assert.ErrorIs(t, err, &runtime.Error{Code: runtime.ErrCodeAddressMismatch})
}

// --- update_profile ---

func TestUpdateProfile_Scenario(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")

	e.clock.Advance(60)
	ix, err := UpdateProfile(alice.Address(), ptr("new bio"), nil)
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ix))

	p := e.profile(t, alice.Address())
	assert.Equal(t, "new bio", p.Bio)
	assert.Equal(t, "cid123", p.AvatarReference, "absent field is untouched")
	assert.Equal(t, "alice", p.Username)
	assert.Greater(t, p.UpdatedAt, p.CreatedAt)
	assert.Equal(t, int64(startTime+60), p.UpdatedAt)
}

func TestUpdateProfile_AvatarOnly(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")

	ix, err := UpdateProfile(alice.Address(), nil, ptr("cid456"))
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ix))

	p := e.profile(t, alice.Address())
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, "cid456", p.AvatarReference)
}

func TestUpdateProfile_NoPartialWrite(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")
	e.clock.Advance(5)

	// Valid avatar with an invalid bio: nothing changes.
	ix, err := UpdateProfile(alice.Address(), ptr(strings.Repeat("b", 141)), ptr("cid999"))
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrBioTooLong)

	ix, err = UpdateProfile(alice.Address(), ptr("fine"), ptr(strings.Repeat("a", 101)))
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrAvatarTooLong)

	p := e.profile(t, alice.Address())
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, "cid123", p.AvatarReference)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestUpdateProfile_Unauthorized(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "cid123")

	// Bob names alice as the owner but only bob signs.
	ix, err := UpdateProfile(alice.Address(), ptr("pwned"), nil)
	require.NoError(t, err)
	assert.True(t, IsUnauthorized(e.submit(keys(bob), ix)))

	// Bob names himself as the acting identity on alice's profile.
	ix.Accounts[1].Address = bob.Address()
	assert.True(t, IsUnauthorized(e.submit(keys(bob), ix)))

	assert.Equal(t, "hi", e.profile(t, alice.Address()).Bio)
}

func TestUpdateProfile_ClockBackwards(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, alice, "alice", "hi", "")
	e.clock.Advance(100)

	ix, err := UpdateProfile(alice.Address(), ptr("one"), nil)
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ix))

	e.clock.Set(startTime + 50)
	ix, err = UpdateProfile(alice.Address(), ptr("two"), nil)
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ix))

	p := e.profile(t, alice.Address())
	assert.Equal(t, "two", p.Bio)
	assert.Equal(t, int64(startTime+100), p.UpdatedAt, "updated_at never decreases")
}

func TestUpdateProfile_Missing(t *testing.T) {
	e := newEnv(t)
	ix, err := UpdateProfile(alice.Address(), ptr("x"), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrAccountNotInitialized)
}

// --- create_post ---

func TestCreatePost_Scenario(t *testing.T) {
	e := newEnv(t)
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, "hello")
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ixs...))

	post, err := e.reader.Post(context.Background(), alice.Address(), startTime)
	require.NoError(t, err)
	assert.Equal(t, alice.Address(), post.Author)
	assert.Equal(t, int64(startTime), post.Timestamp)
	assert.Equal(t, memo.ProgramID, post.ContentReference)

	content, err := e.reader.PostContent(context.Background(), alice.Address(), startTime)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestCreatePost_TamperedPayload(t *testing.T) {
	e := newEnv(t)
	post, err := CreatePost(alice.Address(), startTime, "hello", memo.ProgramID)
	require.NoError(t, err)

	// The memo says "hellO" while the post says "hello".
	tampered := memo.Instruction(CanonicalPostPayload(alice.Address(), startTime, "hellO"), alice.Address())
	err = e.submit(keys(alice), post, tampered)
	assert.ErrorIs(t, err, ErrInvalidMemoData)

	_, err = e.reader.Post(context.Background(), alice.Address(), startTime)
	assert.ErrorIs(t, err, store.ErrNotFound, "no post after a failed transaction")
}

func TestCreatePost_EveryByteMatters(t *testing.T) {
	e := newEnv(t)
	payload := CanonicalPostPayload(alice.Address(), startTime, "hello")

	for i := range payload {
		altered := append([]byte(nil), payload...)
		altered[i] ^= 0x01
		post, err := CreatePost(alice.Address(), startTime, "hello", memo.ProgramID)
		require.NoError(t, err)
		err = e.submit(keys(alice), post, memo.Instruction(altered))
		assert.ErrorIs(t, err, ErrInvalidMemoData, "byte %d", i)
	}
}

func TestCreatePost_WrongTimestamp(t *testing.T) {
	e := newEnv(t)
	// Client guessed the wrong execution time.
	ixs, err := CreatePostWithMemo(alice.Address(), startTime+1, "hello")
	require.NoError(t, err)
	err = e.submit(keys(alice), ixs...)
	// The memo is checked before the slot is certified.
	assert.ErrorIs(t, err, ErrInvalidMemoData)
}

func TestCreatePost_Ordering(t *testing.T) {
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, "hello")
	require.NoError(t, err)
	post, memoIx := ixs[0], ixs[1]

	tests := []struct {
		name      string
		ixs       []ledger.Instruction
		wantIndex int
	}{
		{"memo missing", []ledger.Instruction{post}, 0},
		{"memo before post", []ledger.Instruction{memoIx, post}, 1},
		{"memo not adjacent", []ledger.Instruction{post, Initialize(), memoIx}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			err := e.submit(keys(alice), tt.ixs...)
			assert.ErrorIs(t, err, ErrInvalidMemoInstruction)
			assert.Equal(t, tt.wantIndex, runtime.FailedInstruction(err))
		})
	}
}

func TestCreatePost_NotFirstInstruction(t *testing.T) {
	e := newEnv(t)
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, "hello")
	require.NoError(t, err)

	// The memo is checked relative to the post's own index, not index 0.
	err = e.submit(keys(alice), Initialize(), ixs[0], ixs[1])
	require.NoError(t, err)

	_, err = e.reader.Post(context.Background(), alice.Address(), startTime)
	assert.NoError(t, err)
}

func TestCreatePost_SameSecondCollides(t *testing.T) {
	e := newEnv(t)
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, "first")
	require.NoError(t, err)
	require.NoError(t, e.submit(keys(alice), ixs...))

	ixs, err = CreatePostWithMemo(alice.Address(), startTime, "second")
	require.NoError(t, err)
	assert.True(t, runtime.IsAddressInUse(e.submit(keys(alice), ixs...)))

	e.clock.Advance(1)
	ixs, err = CreatePostWithMemo(alice.Address(), startTime+1, "second")
	require.NoError(t, err)
	assert.NoError(t, e.submit(keys(alice), ixs...))
}

func TestCreatePost_TooLong(t *testing.T) {
	e := newEnv(t)
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, strings.Repeat("p", 281))
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ixs...), ErrPostTooLong)
}

func TestCreatePost_RequiresAuthorSignature(t *testing.T) {
	e := newEnv(t)
	ixs, err := CreatePostWithMemo(alice.Address(), startTime, "hello")
	require.NoError(t, err)
	ixs[1] = memo.Instruction(ixs[1].Data)
	assert.True(t, IsUnauthorized(e.submit(keys(bob), ixs...)))
}

func TestCreatePost_StructuralContent(t *testing.T) {
	content := `she said "hi"`

	t.Run("default keeps raw interpolation", func(t *testing.T) {
		e := newEnv(t)
		ixs, err := CreatePostWithMemo(alice.Address(), startTime, content)
		require.NoError(t, err)
		require.NoError(t, e.submit(keys(alice), ixs...))

		got, err := e.reader.PostContent(context.Background(), alice.Address(), startTime)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("strict rejects", func(t *testing.T) {
		e := newEnv(t, WithStructuralContentCheck(true))
		ixs, err := CreatePostWithMemo(alice.Address(), startTime, content)
		require.NoError(t, err)
		assert.ErrorIs(t, e.submit(keys(alice), ixs...), ErrPostContentUnsafe)
	})
}

// --- send_message / mark_message_read ---

func sendMessage(t *testing.T, e *env, from, to ledger.Keypair, ciphertext string) (ledger.Keypair, error) {
	t.Helper()
	slot, err := ledger.NewKeypair()
	require.NoError(t, err)
	ix, err := SendMessage(from.Address(), slot.Address(), to.Address(), ciphertext)
	require.NoError(t, err)
	return slot, e.submit(keys(from, slot), ix)
}

func TestSendMessage_RecipientFromProfile(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")

	slot, err := sendMessage(t, e, alice, bob, "ciphertext")
	require.NoError(t, err)

	msg, err := e.reader.Message(context.Background(), slot.Address())
	require.NoError(t, err)
	assert.Equal(t, alice.Address(), msg.Sender)
	assert.Equal(t, bob.Address(), msg.Recipient)
	assert.Equal(t, "ciphertext", msg.EncryptedContent)
	assert.Equal(t, int64(startTime), msg.Timestamp)
	assert.False(t, msg.Read)
}

func TestSendMessage_ProfileMustBeCanonical(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")
	slot, err := sendMessage(t, e, alice, bob, "first")
	require.NoError(t, err)

	// Pass a Message account where the recipient profile belongs.
	next, err := ledger.NewKeypair()
	require.NoError(t, err)
	ix, err := SendMessage(alice.Address(), next.Address(), bob.Address(), "spoof")
	require.NoError(t, err)
	ix.Accounts[2].Address = slot.Address()
	err = e.submit(keys(alice, next), ix)
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDiscriminatorMismatch})
}

func TestSendMessage_Failures(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")

	_, err := sendMessage(t, e, alice, carol, "no profile")
	assert.ErrorIs(t, err, ErrAccountNotInitialized)

	_, err = sendMessage(t, e, alice, bob, strings.Repeat("m", 1001))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	// Slot key did not sign.
	slot, err := ledger.NewKeypair()
	require.NoError(t, err)
	ix, err := SendMessage(alice.Address(), slot.Address(), bob.Address(), "x")
	require.NoError(t, err)
	err = e.submit(keys(alice), ix)
	assert.ErrorIs(t, err, &runtime.Error{Code: runtime.ErrCodeSlotNotSigned})

	// Sender did not sign.
	err = e.submit(keys(slot), ix)
	assert.True(t, IsUnauthorized(err))
}

func TestSendMessage_SlotMustBeFresh(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")
	e.createProfile(t, alice, "alice", "", "")

	// Sender's own identity as the slot.
	ix, err := SendMessage(alice.Address(), alice.Address(), bob.Address(), "c")
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice), ix), ErrMessageSlotReserved)

	// Recipient co-signs and offers their identity as the slot.
	ix, err = SendMessage(alice.Address(), bob.Address(), bob.Address(), "c")
	require.NoError(t, err)
	assert.ErrorIs(t, e.submit(keys(alice, bob), ix), ErrMessageSlotReserved)

	_, err = e.backend.ReadAccount(context.Background(), alice.Address())
	assert.ErrorIs(t, err, store.ErrNotFound, "identity address stays empty")
	assert.Equal(t, "alice", e.profile(t, alice.Address()).Username)
}

func TestMarkMessageRead(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")
	slot, err := sendMessage(t, e, alice, bob, "secret")
	require.NoError(t, err)

	t.Run("sender cannot mark", func(t *testing.T) {
		err := e.submit(keys(alice), MarkMessageRead(slot.Address(), alice.Address()))
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("third party cannot mark", func(t *testing.T) {
		err := e.submit(keys(carol), MarkMessageRead(slot.Address(), carol.Address()))
		assert.True(t, IsUnauthorized(err))

		// Naming bob without bob's signature is not enough either.
		err = e.submit(keys(carol), MarkMessageRead(slot.Address(), bob.Address()))
		assert.True(t, IsUnauthorized(err))
	})

	msg, err := e.reader.Message(context.Background(), slot.Address())
	require.NoError(t, err)
	assert.False(t, msg.Read)

	t.Run("recipient marks", func(t *testing.T) {
		require.NoError(t, e.submit(keys(bob), MarkMessageRead(slot.Address(), bob.Address())))
		msg, err := e.reader.Message(context.Background(), slot.Address())
		require.NoError(t, err)
		assert.True(t, msg.Read)
		assert.Equal(t, "secret", msg.EncryptedContent)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, e.submit(keys(bob), MarkMessageRead(slot.Address(), bob.Address())))
		msg, err := e.reader.Message(context.Background(), slot.Address())
		require.NoError(t, err)
		assert.True(t, msg.Read)
	})
}

func TestMarkMessageRead_NotAMessage(t *testing.T) {
	e := newEnv(t)
	e.createProfile(t, bob, "bob", "", "")
	profileSlot, _, err := ProfileAddress(bob.Address())
	require.NoError(t, err)

	err = e.submit(keys(bob), MarkMessageRead(profileSlot, bob.Address()))
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDiscriminatorMismatch})
}

// --- dispatch ---

func TestProcess_Dispatch(t *testing.T) {
	e := newEnv(t)

	t.Run("initialize", func(t *testing.T) {
		assert.NoError(t, e.submit(keys(alice), Initialize()))
	})

	t.Run("unknown tag", func(t *testing.T) {
		ix := ledger.Instruction{Program: ProgramID, Data: []byte("notatag!")}
		assert.ErrorIs(t, e.submit(keys(alice), ix), &Error{Code: ErrCodeInstructionFallbackNotFound})
	})

	t.Run("short data", func(t *testing.T) {
		ix := ledger.Instruction{Program: ProgramID, Data: []byte{1, 2}}
		assert.ErrorIs(t, e.submit(keys(alice), ix), &Error{Code: ErrCodeInstructionFallbackNotFound})
	})

	t.Run("truncated args", func(t *testing.T) {
		ix, err := CreateProfile(alice.Address(), "alice", "", "")
		require.NoError(t, err)
		ix.Data = ix.Data[:len(ix.Data)-2]
		assert.ErrorIs(t, e.submit(keys(alice), ix), &Error{Code: ErrCodeInstructionDidNotDeserialize})
	})

	t.Run("trailing args", func(t *testing.T) {
		ix := Initialize()
		ix.Data = append(ix.Data, 0)
		assert.ErrorIs(t, e.submit(keys(alice), ix), &Error{Code: ErrCodeInstructionDidNotDeserialize})
	})

	t.Run("too few accounts", func(t *testing.T) {
		ix, err := CreateProfile(alice.Address(), "alice", "", "")
		require.NoError(t, err)
		ix.Accounts = ix.Accounts[:1]
		assert.ErrorIs(t, e.submit(keys(alice), ix), &Error{Code: ErrCodeNotEnoughAccountKeys})
	})
}

func TestTransaction_AllOrNothing(t *testing.T) {
	e := newEnv(t)
	profile, err := CreateProfile(alice.Address(), "alice", "hi", "")
	require.NoError(t, err)
	post, err := CreatePost(alice.Address(), startTime, "hello", memo.ProgramID)
	require.NoError(t, err)

	// Profile creation succeeds, then the post fails its memo check.
	err = e.submit(keys(alice), profile, post, memo.Instruction([]byte("wrong")))
	require.Error(t, err)
	assert.Equal(t, 1, runtime.FailedInstruction(err))

	_, err = e.reader.Profile(context.Background(), alice.Address())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSocialFlow_EachBackend(t *testing.T) {
	eachDriver(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		e.createProfile(t, alice, "alice", "hi", "")
		e.createProfile(t, bob, "bob", "", "")

		for i, text := range []string{"first", "second"} {
			ts := e.clock.Advance(1)
			ixs, err := CreatePostWithMemo(alice.Address(), ts, text)
			require.NoError(t, err)
			require.NoError(t, e.submit(keys(alice), ixs...), "post %d", i)
		}
		for i, text := range []string{"first", "second"} {
			content, err := e.reader.PostContent(ctx, alice.Address(), startTime+int64(i)+1)
			require.NoError(t, err)
			assert.Equal(t, text, content)
		}

		slot, err := sendMessage(t, e, alice, bob, "ciphertext")
		require.NoError(t, err)
		require.NoError(t, e.submit(keys(bob), MarkMessageRead(slot.Address(), bob.Address())))
		msg, err := e.reader.Message(ctx, slot.Address())
		require.NoError(t, err)
		assert.True(t, msg.Read)

		require.NoError(t, e.submit(keys(alice), mustUpdate(t, alice.Address(), ptr("new bio"), nil)))
		assert.Equal(t, "new bio", e.profile(t, alice.Address()).Bio)
	})
}

func mustUpdate(t *testing.T, owner ledger.Address, bio, avatar *string) ledger.Instruction {
	t.Helper()
	ix, err := UpdateProfile(owner, bio, avatar)
	require.NoError(t, err)
	return ix
}
