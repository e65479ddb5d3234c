package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenMSCP/mscp-sdk/internal/testutil"
)

func TestRecordSpaces(t *testing.T) {
	assert.Equal(t, 328, ProfileSpace)
	assert.Equal(t, 80, PostSpace)
	assert.Equal(t, 1085, MessageSpace)
}

func TestRecordTags_Distinct(t *testing.T) {
	assert.NotEqual(t, profileTag, postTag)
	assert.NotEqual(t, profileTag, messageTag)
	assert.NotEqual(t, postTag, messageTag)
}

func TestProfile_EncodeDecode(t *testing.T) {
	p := Profile{
		Owner:           testutil.ByteAddress(1),
		Username:        "alice",
		Bio:             "hi",
		AvatarReference: "cid123",
		CreatedAt:       1000,
		UpdatedAt:       1001,
	}
	data, err := p.Encode()
	require.NoError(t, err)
	assert.Len(t, data, ProfileSpace)

	got, err := DecodeProfile(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProfile_EncodeMaxFieldsFits(t *testing.T) {
	p := Profile{
		Username:        string(make([]byte, MaxUsernameLen)),
		Bio:             string(make([]byte, MaxBioLen)),
		AvatarReference: string(make([]byte, MaxAvatarLen)),
	}
	data, err := p.Encode()
	require.NoError(t, err)
	assert.Len(t, data, ProfileSpace)

	p.Bio += "x"
	_, err = p.Encode()
	assert.Error(t, err)
}

func TestMessage_EncodeDecode(t *testing.T) {
	m := Message{
		Sender:           testutil.ByteAddress(1),
		Recipient:        testutil.ByteAddress(2),
		EncryptedContent: "opaque",
		Timestamp:        42,
		Read:             true,
	}
	data, err := m.Encode()
	require.NoError(t, err)
	assert.Len(t, data, MessageSpace)

	got, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestPost_EncodeDecode(t *testing.T) {
	p := Post{Author: testutil.ByteAddress(1), Timestamp: -5, ContentReference: testutil.ByteAddress(2)}
	data, err := p.Encode()
	require.NoError(t, err)
	assert.Len(t, data, PostSpace)

	got, err := DecodePost(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecode_WrongKind(t *testing.T) {
	data, err := Post{}.Encode()
	require.NoError(t, err)

	_, err = DecodeProfile(data)
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDiscriminatorMismatch})
	_, err = DecodeMessage(data)
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDiscriminatorMismatch})
}

func TestDecode_Truncated(t *testing.T) {
	data, err := Message{EncryptedContent: "abc"}.Encode()
	require.NoError(t, err)

	_, err = DecodeMessage(data[:20])
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDidNotDeserialize})
	_, err = DecodeMessage(data[:3])
	assert.ErrorIs(t, err, &Error{Code: ErrCodeAccountDidNotDeserialize})
}

func TestAddresses_Deterministic(t *testing.T) {
	a1, b1, err := ProfileAddress(alice.Address())
	require.NoError(t, err)
	a2, b2, err := ProfileAddress(alice.Address())
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)

	other, _, err := ProfileAddress(bob.Address())
	require.NoError(t, err)
	assert.NotEqual(t, a1, other)

	p1, _, err := PostAddress(alice.Address(), 1000)
	require.NoError(t, err)
	p2, _, err := PostAddress(alice.Address(), 1001)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2, "timestamp is part of the post seed")
	assert.NotEqual(t, a1, p1)
}

func TestProgramID(t *testing.T) {
	assert.Equal(t, "9CuK5BsFiUEF781iSYSJt1BP2xJxDLH2DrVvfoZKJAtj", ProgramID.String())
}
