package social

import (
	"bytes"
	"strconv"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
)

// CanonicalPostPayload is the exact memo payload that must accompany a post:
//
//	{"type":"post","author":"<base58>","ts":<decimal>,"content":"<content>"}
//
// Content is interpolated verbatim with no escaping, so content containing
// quotes or backslashes yields a payload that is not valid JSON. Clients
// must send the same bytes; see ValidateStructuralContent for the strict mode.
func CanonicalPostPayload(author ledger.Address, ts int64, content string) []byte {
	var b bytes.Buffer
	b.WriteString(`{"type":"post","author":"`)
	b.WriteString(author.String())
	b.WriteString(`","ts":`)
	b.WriteString(strconv.FormatInt(ts, 10))
	b.WriteString(`,"content":"`)
	b.WriteString(content)
	b.WriteString(`"}`)
	return b.Bytes()
}

// postContentFromPayload recovers content from a canonical payload for the
// given author and timestamp. The prefix and suffix are fixed, so this is
// exact even when content is not JSON-safe.
func postContentFromPayload(payload []byte, author ledger.Address, ts int64) (string, bool) {
	full := CanonicalPostPayload(author, ts, "")
	prefix, suffix := full[:len(full)-2], full[len(full)-2:]
	if len(payload) < len(full) || !bytes.HasPrefix(payload, prefix) || !bytes.HasSuffix(payload, suffix) {
		return "", false
	}
	return string(payload[len(prefix) : len(payload)-len(suffix)]), true
}

// VerifyLinkedMemo checks that the instruction immediately after the current
// one calls the memo program with exactly the canonical payload. Position
// matters: a matching memo anywhere else in the transaction does not count.
func VerifyLinkedMemo(in runtime.Inspector, author ledger.Address, ts int64, content string) error {
	next, err := in.At(in.Current() + 1)
	if err != nil {
		return newError(ErrCodeInvalidMemoInstruction, "", "no instruction follows index %d", in.Current())
	}
	if next.Program != memo.ProgramID {
		return newError(ErrCodeInvalidMemoInstruction, "", "instruction %d calls %s", in.Current()+1, next.Program)
	}
	if !bytes.Equal(next.Data, CanonicalPostPayload(author, ts, content)) {
		return newError(ErrCodeInvalidMemoData, "", "memo payload at instruction %d does not match", in.Current()+1)
	}
	return nil
}
