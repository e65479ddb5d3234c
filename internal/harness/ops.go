package harness

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/memo"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
	"github.com/OpenMSCP/mscp-sdk/internal/testutil"
)

// keyring resolves identity names to deterministic keypairs.
type keyring map[string]ledger.Keypair

func (k keyring) get(name string) ledger.Keypair {
	kp, ok := k[name]
	if !ok {
		kp = testutil.Identity(name)
		k[name] = kp
	}
	return kp
}

// opContext carries what an op needs to build its instructions.
type opContext struct {
	keys keyring
	now  int64
}

type builderFunc func(oc *opContext, a opArgs) ([]ledger.Instruction, error)

type opSpec struct {
	allowed []string
	build   builderFunc
}

// builders maps op names to instruction builders.
var builders = map[string]opSpec{
	"initialize": {nil, func(*opContext, opArgs) ([]ledger.Instruction, error) {
		return []ledger.Instruction{social.Initialize()}, nil
	}},
	"create_profile": {[]string{"owner", "username", "bio", "avatar"}, buildCreateProfile},
	"update_profile": {[]string{"owner", "bio", "avatar", "actor"}, buildUpdateProfile},
	"create_post":    {[]string{"author", "content", "ts"}, buildCreatePost},
	"post_memo":      {[]string{"author", "content", "ts"}, buildPostMemo},
	"create_post_with_memo": {[]string{"author", "content", "ts"}, func(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
		post, err := buildCreatePost(oc, a)
		if err != nil {
			return nil, err
		}
		m, err := buildPostMemo(oc, a)
		if err != nil {
			return nil, err
		}
		return append(post, m...), nil
	}},
	"memo":              {[]string{"payload", "signers"}, buildMemo},
	"send_message":      {[]string{"sender", "slot", "recipient", "ciphertext"}, buildSendMessage},
	"mark_message_read": {[]string{"slot", "reader"}, buildMarkMessageRead},
}

// buildOps turns a step's ops into instructions.
func buildOps(oc *opContext, ops []Op) ([]ledger.Instruction, error) {
	var out []ledger.Instruction
	for i, op := range ops {
		spec, ok := builders[op.Op]
		if !ok {
			return nil, fmt.Errorf("instructions[%d]: unknown op %q", i, op.Op)
		}
		a := opArgs{oc: oc, raw: op.Args}
		if err := a.only(spec.allowed...); err != nil {
			return nil, fmt.Errorf("instructions[%d] %s: %w", i, op.Op, err)
		}
		ixs, err := spec.build(oc, a)
		if err != nil {
			return nil, fmt.Errorf("instructions[%d] %s: %w", i, op.Op, err)
		}
		out = append(out, ixs...)
	}
	return out, nil
}

func buildCreateProfile(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	owner, err := a.identity("owner")
	if err != nil {
		return nil, err
	}
	username, err := a.str("username")
	if err != nil {
		return nil, err
	}
	ix, err := social.CreateProfile(owner, username, a.strOr("bio", ""), a.strOr("avatar", ""))
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{ix}, nil
}

func buildUpdateProfile(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	owner, err := a.identity("owner")
	if err != nil {
		return nil, err
	}
	ix, err := social.UpdateProfile(owner, a.optStr("bio"), a.optStr("avatar"))
	if err != nil {
		return nil, err
	}
	// actor replaces the acting identity, to exercise authorization.
	if a.has("actor") {
		actor, err := a.identity("actor")
		if err != nil {
			return nil, err
		}
		ix.Accounts[1].Address = actor
	}
	return []ledger.Instruction{ix}, nil
}

func buildCreatePost(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	author, content, ts, err := postArgs(oc, a)
	if err != nil {
		return nil, err
	}
	ix, err := social.CreatePost(author, ts, content, memo.ProgramID)
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{ix}, nil
}

func buildPostMemo(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	author, content, ts, err := postArgs(oc, a)
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{memo.Instruction(social.CanonicalPostPayload(author, ts, content), author)}, nil
}

func postArgs(oc *opContext, a opArgs) (ledger.Address, string, int64, error) {
	author, err := a.identity("author")
	if err != nil {
		return ledger.Address{}, "", 0, err
	}
	content, err := a.str("content")
	if err != nil {
		return ledger.Address{}, "", 0, err
	}
	ts := oc.now
	if a.has("ts") {
		if ts, err = a.integer("ts"); err != nil {
			return ledger.Address{}, "", 0, err
		}
	}
	return author, content, ts, nil
}

func buildMemo(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	payload, err := a.str("payload")
	if err != nil {
		return nil, err
	}
	signers, err := a.identities("signers")
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{memo.Instruction([]byte(payload), signers...)}, nil
}

func buildSendMessage(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	sender, err := a.identity("sender")
	if err != nil {
		return nil, err
	}
	slot, err := a.identity("slot")
	if err != nil {
		return nil, err
	}
	recipient, err := a.identity("recipient")
	if err != nil {
		return nil, err
	}
	ix, err := social.SendMessage(sender, slot, recipient, a.strOr("ciphertext", ""))
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{ix}, nil
}

func buildMarkMessageRead(oc *opContext, a opArgs) ([]ledger.Instruction, error) {
	slot, err := a.identity("slot")
	if err != nil {
		return nil, err
	}
	reader, err := a.identity("reader")
	if err != nil {
		return nil, err
	}
	return []ledger.Instruction{social.MarkMessageRead(slot, reader)}, nil
}

// placeholder matches ${name} in string arguments.
var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_:-]+)\}`)

// opArgs reads typed values out of a YAML args map.
type opArgs struct {
	oc  *opContext
	raw map[string]any
}

func (a opArgs) only(allowed ...string) error {
	var unknown []string
	for k := range a.raw {
		found := false
		for _, want := range allowed {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown args %v", unknown)
	}
	return nil
}

func (a opArgs) has(key string) bool {
	_, ok := a.raw[key]
	return ok
}

func (a opArgs) str(key string) (string, error) {
	v, ok := a.raw[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return a.expand(s), nil
}

func (a opArgs) strOr(key, fallback string) string {
	s, err := a.str(key)
	if err != nil {
		return fallback
	}
	return s
}

// optStr returns nil when key is absent, for optional update fields.
func (a opArgs) optStr(key string) *string {
	s, err := a.str(key)
	if err != nil {
		return nil
	}
	return &s
}

func (a opArgs) integer(key string) (int64, error) {
	switch v := a.raw[key].(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(a.expand(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

func (a opArgs) identity(key string) (ledger.Address, error) {
	name, err := a.str(key)
	if err != nil {
		return ledger.Address{}, err
	}
	return a.oc.keys.get(name).Address(), nil
}

func (a opArgs) identities(key string) ([]ledger.Address, error) {
	v, ok := a.raw[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of names", key)
	}
	out := make([]ledger.Address, 0, len(list))
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of names", key)
		}
		out = append(out, a.oc.keys.get(name).Address())
	}
	return out, nil
}

// expand substitutes ${now} and ${name} placeholders.
func (a opArgs) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if name == "now" {
			return strconv.FormatInt(a.oc.now, 10)
		}
		return a.oc.keys.get(name).Address().String()
	})
}
