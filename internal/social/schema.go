package social

import (
	"crypto/sha256"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// Field limits in bytes.
const (
	MinUsernameLen   = 3
	MaxUsernameLen   = 20
	MaxBioLen        = 140
	MaxAvatarLen     = 100
	MaxPostLen       = 280
	MaxCiphertextLen = 1000
)

// tagSize is the length of the record-kind tag heading every record.
const tagSize = 8

// Record sizes. Storage is allocated at the maximum so later mutation never
// needs to grow a slot.
const (
	ProfileSpace = tagSize + ledger.Size + (4 + MaxUsernameLen) + (4 + MaxBioLen) + (4 + MaxAvatarLen) + 8 + 8
	PostSpace    = tagSize + ledger.Size + 8 + ledger.Size
	MessageSpace = tagSize + ledger.Size + ledger.Size + (4 + MaxCiphertextLen) + 8 + 1
)

// Seed namespaces.
const (
	profileNamespace = "profile"
	postNamespace    = "post"
)

var (
	profileTag = recordTag("Profile")
	postTag    = recordTag("Post")
	messageTag = recordTag("Message")
)

func recordTag(kind string) [tagSize]byte {
	var tag [tagSize]byte
	sum := sha256.Sum256([]byte("account:" + kind))
	copy(tag[:], sum[:tagSize])
	return tag
}

// Profile is one per owner identity.
type Profile struct {
	Owner           ledger.Address `json:"owner"`
	Username        string         `json:"username"`
	Bio             string         `json:"bio"`
	AvatarReference string         `json:"avatar_reference"`
	CreatedAt       int64          `json:"created_at"`
	UpdatedAt       int64          `json:"updated_at"`
}

// Post links an author and timestamp to the memo log entry holding the text.
type Post struct {
	Author           ledger.Address `json:"author"`
	Timestamp        int64          `json:"timestamp"`
	ContentReference ledger.Address `json:"content_reference"`
}

// Message is an opaque ciphertext from sender to recipient.
type Message struct {
	Sender           ledger.Address `json:"sender"`
	Recipient        ledger.Address `json:"recipient"`
	EncryptedContent string         `json:"encrypted_content"`
	Timestamp        int64          `json:"timestamp"`
	Read             bool           `json:"read"`
}

// Encode serializes p into a ProfileSpace buffer.
func (p Profile) Encode() ([]byte, error) {
	data := make([]byte, 0, ProfileSpace)
	data = append(data, profileTag[:]...)
	ledger.PutAddress(p.Owner, &data)
	ledger.PutString(p.Username, &data)
	ledger.PutString(p.Bio, &data)
	ledger.PutString(p.AvatarReference, &data)
	ledger.PutInt64(p.CreatedAt, &data)
	ledger.PutInt64(p.UpdatedAt, &data)
	return pad(data, ProfileSpace, "Profile")
}

// Encode serializes p into a PostSpace buffer.
func (p Post) Encode() ([]byte, error) {
	data := make([]byte, 0, PostSpace)
	data = append(data, postTag[:]...)
	ledger.PutAddress(p.Author, &data)
	ledger.PutInt64(p.Timestamp, &data)
	ledger.PutAddress(p.ContentReference, &data)
	return pad(data, PostSpace, "Post")
}

// Encode serializes m into a MessageSpace buffer.
func (m Message) Encode() ([]byte, error) {
	data := make([]byte, 0, MessageSpace)
	data = append(data, messageTag[:]...)
	ledger.PutAddress(m.Sender, &data)
	ledger.PutAddress(m.Recipient, &data)
	ledger.PutString(m.EncryptedContent, &data)
	ledger.PutInt64(m.Timestamp, &data)
	ledger.PutBool(m.Read, &data)
	return pad(data, MessageSpace, "Message")
}

func pad(data []byte, space int, kind string) ([]byte, error) {
	if len(data) > space {
		return nil, fmt.Errorf("%s encodes to %d bytes, slot holds %d", kind, len(data), space)
	}
	return append(data, make([]byte, space-len(data))...), nil
}

// DecodeProfile parses a Profile record.
func DecodeProfile(data []byte) (Profile, error) {
	var p Profile
	pos, err := checkTag(data, profileTag, "Profile")
	if err != nil {
		return p, err
	}
	p.Owner, pos = ledger.ParseAddress(data, pos)
	p.Username, pos = ledger.ParseString(data, pos)
	p.Bio, pos = ledger.ParseString(data, pos)
	p.AvatarReference, pos = ledger.ParseString(data, pos)
	p.CreatedAt, pos = ledger.ParseInt64(data, pos)
	p.UpdatedAt, pos = ledger.ParseInt64(data, pos)
	if pos > len(data) {
		return Profile{}, newError(ErrCodeAccountDidNotDeserialize, "", "Profile record is truncated")
	}
	return p, nil
}

// DecodePost parses a Post record.
func DecodePost(data []byte) (Post, error) {
	var p Post
	pos, err := checkTag(data, postTag, "Post")
	if err != nil {
		return p, err
	}
	p.Author, pos = ledger.ParseAddress(data, pos)
	p.Timestamp, pos = ledger.ParseInt64(data, pos)
	p.ContentReference, pos = ledger.ParseAddress(data, pos)
	if pos > len(data) {
		return Post{}, newError(ErrCodeAccountDidNotDeserialize, "", "Post record is truncated")
	}
	return p, nil
}

// DecodeMessage parses a Message record.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	pos, err := checkTag(data, messageTag, "Message")
	if err != nil {
		return m, err
	}
	m.Sender, pos = ledger.ParseAddress(data, pos)
	m.Recipient, pos = ledger.ParseAddress(data, pos)
	m.EncryptedContent, pos = ledger.ParseString(data, pos)
	m.Timestamp, pos = ledger.ParseInt64(data, pos)
	m.Read, pos = ledger.ParseBool(data, pos)
	if pos > len(data) {
		return Message{}, newError(ErrCodeAccountDidNotDeserialize, "", "Message record is truncated")
	}
	return m, nil
}

func checkTag(data []byte, want [tagSize]byte, kind string) (int, error) {
	if len(data) < tagSize {
		return 0, newError(ErrCodeAccountDidNotDeserialize, "", "%s record is shorter than its tag", kind)
	}
	if [tagSize]byte(data[:tagSize]) != want {
		return 0, newError(ErrCodeAccountDiscriminatorMismatch, "", "account does not hold a %s record", kind)
	}
	return tagSize, nil
}

// ProfileAddress returns the slot and bump of owner's profile.
func ProfileAddress(owner ledger.Address) (ledger.Address, uint8, error) {
	return ledger.FindAddress(ProgramID, profileSeeds(owner)...)
}

// PostAddress returns the slot and bump of author's post at ts.
func PostAddress(author ledger.Address, ts int64) (ledger.Address, uint8, error) {
	return ledger.FindAddress(ProgramID, postSeeds(author, ts)...)
}

func profileSeeds(owner ledger.Address) [][]byte {
	return [][]byte{[]byte(profileNamespace), owner.Bytes()}
}

func postSeeds(author ledger.Address, ts int64) [][]byte {
	var tsLE []byte
	ledger.PutInt64(ts, &tsLE)
	return [][]byte{[]byte(postNamespace), author.Bytes(), tsLE}
}
