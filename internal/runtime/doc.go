// Package runtime is the host that executes ledger transactions.
//
// A transaction is an ordered list of instructions, each addressed to a
// registered Program. The runtime:
//
//  1. verifies every ed25519 signature over the transaction message and
//     turns the verified signer set into Credentials
//  2. reads the logical time once, so every instruction observes the same value
//  3. opens a single store unit of work and runs the instructions in order
//  4. on the first error rolls everything back; otherwise journals the
//     transaction and commits
//
// Programs never touch the store directly. They see an InstructionContext
// that limits account I/O to the accounts named by the instruction and
// certifies derived addresses, and an Inspector over the sibling
// instructions of the same transaction.
//
// Writers are serialized: Submit holds a mutex for the whole transaction, so
// the journal order (seq) is the execution order.
package runtime
