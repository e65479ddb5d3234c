package runtime

import (
	"errors"
	"fmt"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// ErrInstructionNotFound is returned by Inspector.At for an index outside
// the transaction.
var ErrInstructionNotFound = errors.New("runtime: instruction not found")

// Inspector gives read-only access to the instructions of the executing
// transaction. It returns copies; nothing a program does with them affects
// execution.
type Inspector struct {
	instructions []ledger.Instruction
	current      int
}

func newInspector(instructions []ledger.Instruction, current int) Inspector {
	return Inspector{instructions: instructions, current: current}
}

// At returns a copy of instruction i.
func (in Inspector) At(i int) (ledger.Instruction, error) {
	if i < 0 || i >= len(in.instructions) {
		return ledger.Instruction{}, fmt.Errorf("%w: index %d of %d", ErrInstructionNotFound, i, len(in.instructions))
	}
	return in.instructions[i].Clone(), nil
}

// Len returns the number of instructions in the transaction.
func (in Inspector) Len() int {
	return len(in.instructions)
}

// Current returns the index of the executing instruction.
func (in Inspector) Current() int {
	return in.current
}
