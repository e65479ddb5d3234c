// Package harness runs YAML transaction scenarios against a fresh ledger.
//
// A scenario submits a sequence of signed transactions through the real
// runtime, with the social and memo programs registered, then checks each
// outcome and the final records.
//
// # Scenario Format
//
//	name: post_linkage
//	description: "create_post needs the canonical memo right after it"
//	start_time: 1000
//	setup:
//	  - signers: [bob]
//	    instructions:
//	      - op: create_profile
//	        args: { owner: bob, username: bob }
//	flow:
//	  - name: tampered memo
//	    signers: [alice]
//	    instructions:
//	      - op: create_post
//	        args: { author: alice, content: hello }
//	      - op: memo
//	        args:
//	          payload: '{"type":"post","author":"${alice}","ts":${now},"content":"hellO"}'
//	          signers: [alice]
//	    expect: { status: rejected, code: INVALID_MEMO_DATA, index: 0 }
//	assertions:
//	  - type: absent
//	    record: post
//	    author: alice
//	    ts: 1000
//
// Identities are referenced by name. Each name maps to a deterministic
// keypair, so the same scenario always derives the same slots. Message
// slots are identities too: name one in send_message and list it as a
// signer.
//
// # Ops
//
//   - initialize
//   - create_profile: owner, username, bio, avatar
//   - update_profile: owner, bio, avatar, actor (overrides the acting identity)
//   - create_post: author, content, ts (default: the step's time)
//   - post_memo: author, content, ts; the canonical memo for a post
//   - create_post_with_memo: create_post followed by post_memo
//   - memo: payload, signers
//   - send_message: sender, slot, recipient, ciphertext
//   - mark_message_read: slot, reader
//
// String arguments expand ${now} to the step's time and ${name} to an
// identity's base58 address.
//
// # Assertion Types
//
//   - profile: owner, expect
//   - post: author, ts, expect (content is read back from the memo log)
//   - message: slot, expect
//   - absent: record (profile, post or message) plus its locator
//   - rejection_count: code, count
//
// Field expectations use subset semantics. Identity-valued fields are
// written as names.
//
// # Deterministic Testing
//
// Every run uses an in-memory SQLite store, testutil.DeterministicClock and
// testutil.SequentialIDGenerator, so traces compare byte-for-byte against
// golden files (see RunWithGolden).
package harness
