// Package codebuf implements the in-memory instruction buffer: a
// fixed-size array of (opcode, operand) pairs supporting backpatching
// and textual mnemonic emission for the target stack machine.
package codebuf

import (
	"fmt"
	"io"
)

// Opcode is one of the stack machine's instruction codes.
type Opcode int

const (
	Add Opcode = iota
	Sub
	Mult
	Div
	Neg
	Ret
	Bsf
	Rsf
	PushFP
	Read
	Write
	Halt

	// 1-address opcodes: operand is meaningful.
	Br
	Bgz
	Bg
	Blz
	Bl
	Bz
	Bnz
	Call
	Ldp
	Rdp
	Inc
	Dec
	LoadImmediate
	LoadAbsolute
	LoadFP
	LoadSP
	StoreAbsolute
	StoreFP
	StoreSP
)

// DefaultCapacity is the fixed instruction-buffer capacity: reaching
// it is a fatal internal error (the compile-time program-size limit).
// A dynamic buffer is a possible relaxation (see DESIGN.md) but is not
// taken, to keep the overflow-is-fatal behaviour exercised by the test
// suite meaningful.
const DefaultCapacity = 1024

// Instruction is one (opcode, operand) pair. The operand's meaning is
// opcode-dependent: ignored for zero-address opcodes, an absolute
// address for control transfers, an immediate for LoadImmediate, a
// data address or FP/SP-relative offset for loads/stores.
type Instruction struct {
	Opcode  Opcode
	Operand int
}

// Error reports a fatal code-buffer condition (overflow, out-of-range
// backpatch target) with enough context to diagnose it, mirroring
// encoder.EncodingError's shape.
type Error struct {
	Address int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fatal internal error at code address %d: %s", e.Address, e.Message)
}

// Buffer is the code generator's instruction store.
type Buffer struct {
	instructions []Instruction
	capacity     int
	errorsPresent bool
}

// New constructs an empty Buffer with the given fixed capacity (0
// selects DefaultCapacity).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		instructions: make([]Instruction, 0, capacity),
		capacity:     capacity,
	}
}

// Emit appends an instruction and returns nothing; the address it was
// placed at is CurrentAddress()-1 after the call. Reaching the fixed
// capacity is a fatal internal error.
func (b *Buffer) Emit(opcode Opcode, operand int) {
	if len(b.instructions) >= b.capacity {
		panic(&Error{Address: len(b.instructions), Message: fmt.Sprintf("code buffer overflow, capacity %d exceeded", b.capacity)})
	}
	b.instructions = append(b.instructions, Instruction{Opcode: opcode, Operand: operand})
}

// Emit0 emits a zero-address instruction (operand ignored).
func (b *Buffer) Emit0(opcode Opcode) { b.Emit(opcode, 0) }

// CurrentAddress returns the address the next emission will occupy.
// It is non-decreasing and increases by exactly 1 per Emit.
func (b *Buffer) CurrentAddress() int { return len(b.instructions) }

// Backpatch overwrites the operand field of a previously emitted
// instruction; the opcode is never touched and N never changes. A
// target outside [0, CurrentAddress()) is a fatal internal error.
func (b *Buffer) Backpatch(address int, operand int) {
	if address < 0 || address >= len(b.instructions) {
		panic(&Error{Address: address, Message: fmt.Sprintf("backpatch target outside 0..%d", len(b.instructions)-1)})
	}
	b.instructions[address].Operand = operand
}

// At returns the instruction at address, for tests that verify the
// backpatch law (opcode unchanged, operand updated).
func (b *Buffer) At(address int) Instruction {
	return b.instructions[address]
}

// KillOutput sets the errors-present flag: in-memory emission
// continues harmlessly, but Flush will write only the error banner.
func (b *Buffer) KillOutput() { b.errorsPresent = true }

// ErrorsPresent reports whether KillOutput has been called.
func (b *Buffer) ErrorsPresent() bool { return b.errorsPresent }

// zeroAddressMnemonics maps each zero-address opcode to its textual mnemonic.
var zeroAddressMnemonics = map[Opcode]string{
	Add: "Add", Sub: "Sub", Mult: "Mult", Div: "Div", Neg: "Neg",
	Ret: "Ret", Bsf: "Bsf", Rsf: "Rsf", Read: "Read", Write: "Write",
	Halt: "Halt",
}

// controlMnemonics maps control/count opcodes (operand is a plain
// integer) to their mnemonic.
var controlMnemonics = map[Opcode]string{
	Br: "Br", Bgz: "Bgz", Bg: "Bg", Blz: "Blz", Bl: "Bl", Bz: "Bz",
	Bnz: "Bnz", Call: "Call", Ldp: "Ldp", Rdp: "Rdp", Inc: "Inc", Dec: "Dec",
}

// Flush writes the textual listing to w and "closes" it conceptually
// (the caller owns w's lifetime). If errors-present is set, w
// receives only the two-line error banner. Backpatches take effect
// before the listing is written, since the listing happens exactly
// once, here.
func (b *Buffer) Flush(w io.Writer) error {
	if b.errorsPresent {
		_, err := io.WriteString(w, ";; Errors detected in input file, no code\n;; generated\n")
		return err
	}
	for i, inst := range b.instructions {
		line, err := b.format(i, inst)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%3d  %s\n", i, line); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buffer) format(addr int, inst Instruction) (string, error) {
	if m, ok := zeroAddressMnemonics[inst.Opcode]; ok {
		return m, nil
	}
	if inst.Opcode == PushFP {
		return "Push  FP", nil
	}
	if m, ok := controlMnemonics[inst.Opcode]; ok {
		return fmt.Sprintf("%s %d", m, inst.Operand), nil
	}
	switch inst.Opcode {
	case LoadImmediate:
		return fmt.Sprintf("Load #%d", inst.Operand), nil
	case LoadAbsolute:
		return fmt.Sprintf("Load %d", inst.Operand), nil
	case StoreAbsolute:
		return fmt.Sprintf("Store %d", inst.Operand), nil
	case LoadFP:
		return fpRelative("Load", inst.Operand, "FP"), nil
	case StoreFP:
		return fpRelative("Store", inst.Operand, "FP"), nil
	case LoadSP:
		return fpRelative("Load", inst.Operand, "[SP]"), nil
	case StoreSP:
		return fpRelative("Store", inst.Operand, "[SP]"), nil
	default:
		return "", &Error{Address: addr, Message: fmt.Sprintf("unknown opcode %d", inst.Opcode)}
	}
}

// fpRelative renders the FP/[SP]-relative load/store forms: `Load FP`,
// `Load FP+<n>` for a positive offset, `Load FP<n>` for a negative
// offset (the sign is carried by %d itself), and the [SP] analogues.
func fpRelative(mnemonic string, offset int, base string) string {
	switch {
	case offset == 0:
		return fmt.Sprintf("%s %s", mnemonic, base)
	case offset > 0:
		return fmt.Sprintf("%s %s+%d", mnemonic, base, offset)
	default:
		return fmt.Sprintf("%s %s%d", mnemonic, base, offset)
	}
}
