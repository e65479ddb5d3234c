// Package ledger provides the foundational types shared by the host runtime,
// the account store and the on-ledger programs.
//
// This package imports nothing internal. It defines:
//   - Address: 32-byte identity / record slot, base58 text form
//   - Keypair and Signature: ed25519 signing of transaction messages
//   - FindAddress / CreateAddress: program-derived addresses
//   - Instruction and Transaction: the ordered unit submitted to the host
//   - Clock and Sequence: logical time and logical transaction order
//   - binary codec helpers used by every on-ledger layout
//
// Key design constraints:
//   - Identities and record slots share one 32-byte address space
//   - Derived addresses are never valid ed25519 points, so no private key
//     can sign for them
//   - The signed message excludes signatures and is byte-stable
package ledger
