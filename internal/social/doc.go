// Package social is the social ledger program: profiles, posts and direct
// messages stored as fixed-layout records at independently addressed slots.
//
// Five instructions mutate state:
//
//	create_profile     ∅ → Profile at derive("profile", owner)
//	update_profile     Profile → Profile′ (owner only)
//	create_post        ∅ → Post at derive("post", author, ts)
//	send_message       ∅ → Message at a fresh signed slot
//	mark_message_read  Message(read=false) → Message(read=true) (recipient only)
//
// A post stores no text. Its content lives in the program log of the memo
// program, and create_post only succeeds when the instruction right after it
// is a memo call carrying exactly CanonicalPostPayload(author, ts, content).
// The check inspects the sibling instruction without executing it; the
// memo program logs the payload when its own turn comes, and the runtime
// commits both or neither.
package social
