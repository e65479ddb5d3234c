package social

import "github.com/OpenMSCP/mscp-sdk/internal/ledger"

// Instruction arguments. Strings are u32-length prefixed; optional values
// carry a one-byte presence flag.

type CreateProfileArgs struct {
	Username string
	Bio      string
	Avatar   string
}

type UpdateProfileArgs struct {
	Bio    *string
	Avatar *string
}

type CreatePostArgs struct {
	Content string
}

type SendMessageArgs struct {
	Ciphertext string
}

func (a CreateProfileArgs) encode() []byte {
	data := tagBytes(InstructionCreateProfile)
	ledger.PutString(a.Username, &data)
	ledger.PutString(a.Bio, &data)
	ledger.PutString(a.Avatar, &data)
	return data
}

func (a UpdateProfileArgs) encode() []byte {
	data := tagBytes(InstructionUpdateProfile)
	ledger.PutOptionalString(a.Bio, &data)
	ledger.PutOptionalString(a.Avatar, &data)
	return data
}

func (a CreatePostArgs) encode() []byte {
	data := tagBytes(InstructionCreatePost)
	ledger.PutString(a.Content, &data)
	return data
}

func (a SendMessageArgs) encode() []byte {
	data := tagBytes(InstructionSendMessage)
	ledger.PutString(a.Ciphertext, &data)
	return data
}

func tagBytes(name string) []byte {
	tag := tagFor(name)
	return append([]byte(nil), tag[:]...)
}

func decodeCreateProfileArgs(data []byte) (CreateProfileArgs, error) {
	var a CreateProfileArgs
	pos := 0
	a.Username, pos = ledger.ParseString(data, pos)
	a.Bio, pos = ledger.ParseString(data, pos)
	a.Avatar, pos = ledger.ParseString(data, pos)
	return a, argsEnd(data, pos, InstructionCreateProfile)
}

func decodeUpdateProfileArgs(data []byte) (UpdateProfileArgs, error) {
	var a UpdateProfileArgs
	pos := 0
	a.Bio, pos = ledger.ParseOptionalString(data, pos)
	a.Avatar, pos = ledger.ParseOptionalString(data, pos)
	return a, argsEnd(data, pos, InstructionUpdateProfile)
}

func decodeCreatePostArgs(data []byte) (CreatePostArgs, error) {
	var a CreatePostArgs
	pos := 0
	a.Content, pos = ledger.ParseString(data, pos)
	return a, argsEnd(data, pos, InstructionCreatePost)
}

func decodeSendMessageArgs(data []byte) (SendMessageArgs, error) {
	var a SendMessageArgs
	pos := 0
	a.Ciphertext, pos = ledger.ParseString(data, pos)
	return a, argsEnd(data, pos, InstructionSendMessage)
}

func argsEnd(data []byte, pos int, name string) error {
	if pos != len(data) {
		return newError(ErrCodeInstructionDidNotDeserialize, "", "%s arguments are malformed", name)
	}
	return nil
}
