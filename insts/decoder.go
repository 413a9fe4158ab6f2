// Package insts provides ARM64 instruction definitions and decoding.
package insts

// Op represents an ARM64 branch opcode.
type Op uint16

// ARM64 branch opcodes.
const (
	OpUnknown Op = iota
	OpB
	OpBL
	OpBCond
	OpCBZ
	OpCBNZ
	OpTBZ
	OpTBNZ
	OpBR
	OpBLR
	OpRET
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpB:       "B",
	OpBL:      "BL",
	OpBCond:   "B.cond",
	OpCBZ:     "CBZ",
	OpCBNZ:    "CBNZ",
	OpTBZ:     "TBZ",
	OpTBNZ:    "TBNZ",
	OpBR:      "BR",
	OpBLR:     "BLR",
	OpRET:     "RET",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown       Format = iota
	FormatBranch               // Unconditional Branch (Immediate)
	FormatBranchCond           // Conditional Branch (Immediate)
	FormatCompareBranch        // Compare and Branch
	FormatTestBranch           // Test and Branch
	FormatBranchReg            // Branch to Register
)

// Cond represents an ARM64 condition code.
type Cond uint8

// ARM64 condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set (C == 1)
	CondCC Cond = 0b0011 // Carry Clear (C == 0)
	CondMI Cond = 0b0100 // Minus (N == 1)
	CondPL Cond = 0b0101 // Plus or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher
	CondLS Cond = 0b1001 // Unsigned lower or same
	CondGE Cond = 0b1010 // Signed greater than or equal
	CondLT Cond = 0b1011 // Signed less than
	CondGT Cond = 0b1100 // Signed greater than
	CondLE Cond = 0b1101 // Signed less than or equal
	CondAL Cond = 0b1110 // Always
	CondNV Cond = 0b1111 // Always (reserved)
)

// Instruction represents a decoded ARM64 branch instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Is64Bit bool  // CBZ/CBNZ operate on X registers
	Rn      uint8 // Target register (BR/BLR/RET) or tested register (CB*/TB*)

	BranchOffset int64 // Signed branch offset in bytes (immediate forms)
	Cond         Cond  // Condition code for B.cond
	TestBit      uint8 // Bit number tested by TBZ/TBNZ
}

// IsBranch reports whether the word decoded to any branch.
func (i *Instruction) IsBranch() bool {
	return i.Op != OpUnknown
}

// IsConditional reports whether the branch direction depends on runtime
// state. B.cond with AL or NV is architecturally always taken and is not
// conditional.
func (i *Instruction) IsConditional() bool {
	switch i.Op {
	case OpBCond:
		return i.Cond != CondAL && i.Cond != CondNV
	case OpCBZ, OpCBNZ, OpTBZ, OpTBNZ:
		return true
	}
	return false
}

// IsUnconditional reports whether the branch is always taken.
func (i *Instruction) IsUnconditional() bool {
	return i.IsBranch() && !i.IsConditional()
}

// IsIndirect reports whether the target comes from a register.
func (i *Instruction) IsIndirect() bool {
	return i.Format == FormatBranchReg
}

// Target returns the taken target of an immediate branch at pc. Indirect
// and unknown instructions return false.
func (i *Instruction) Target(pc uint64) (uint64, bool) {
	switch i.Format {
	case FormatBranch, FormatBranchCond, FormatCompareBranch, FormatTestBranch:
		return uint64(int64(pc) + i.BranchOffset), true
	}
	return 0, false
}

// Decoder decodes ARM64 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM64 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM64 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}

	switch {
	case d.isBranchImm(word):
		d.decodeBranchImm(word, inst)
	case d.isBranchCond(word):
		d.decodeBranchCond(word, inst)
	case d.isCompareBranch(word):
		d.decodeCompareBranch(word, inst)
	case d.isTestBranch(word):
		d.decodeTestBranch(word, inst)
	case d.isBranchReg(word):
		d.decodeBranchReg(word, inst)
	}

	return inst
}

// signExtend sign-extends the low bits of v and scales it to a byte offset.
func signExtend(v uint32, bits uint) int64 {
	offset := int64(v)
	if (v>>(bits-1))&1 == 1 {
		offset |= ^int64((1 << bits) - 1)
	}
	return offset * 4
}

// isBranchImm checks for unconditional branch immediate.
// B:  bits [31:26] == 0b000101
// BL: bits [31:26] == 0b100101
func (d *Decoder) isBranchImm(word uint32) bool {
	op := (word >> 26) & 0x3F
	return op == 0b000101 || op == 0b100101
}

// decodeBranchImm decodes B and BL.
// Format: op | 00101 | imm26
func (d *Decoder) decodeBranchImm(word uint32, inst *Instruction) {
	inst.Format = FormatBranch
	inst.BranchOffset = signExtend(word&0x3FFFFFF, 26)

	if (word>>31)&0x1 == 0 {
		inst.Op = OpB
	} else {
		inst.Op = OpBL
	}
}

// isBranchCond checks for B.cond.
// Format: 0101010 0 | imm19 | 0 | cond
func (d *Decoder) isBranchCond(word uint32) bool {
	return (word>>24) == 0x54 && (word>>4)&0x1 == 0
}

func (d *Decoder) decodeBranchCond(word uint32, inst *Instruction) {
	inst.Format = FormatBranchCond
	inst.Op = OpBCond
	inst.BranchOffset = signExtend((word>>5)&0x7FFFF, 19)
	inst.Cond = Cond(word & 0xF)
}

// isCompareBranch checks for CBZ/CBNZ.
// Format: sf | 011010 | op | imm19 | Rt
func (d *Decoder) isCompareBranch(word uint32) bool {
	return (word>>25)&0x3F == 0b011010
}

func (d *Decoder) decodeCompareBranch(word uint32, inst *Instruction) {
	inst.Format = FormatCompareBranch
	inst.Is64Bit = (word>>31)&0x1 == 1
	inst.Rn = uint8(word & 0x1F)
	inst.BranchOffset = signExtend((word>>5)&0x7FFFF, 19)

	if (word>>24)&0x1 == 0 {
		inst.Op = OpCBZ
	} else {
		inst.Op = OpCBNZ
	}
}

// isTestBranch checks for TBZ/TBNZ.
// Format: b5 | 011011 | op | b40 | imm14 | Rt
func (d *Decoder) isTestBranch(word uint32) bool {
	return (word>>25)&0x3F == 0b011011
}

func (d *Decoder) decodeTestBranch(word uint32, inst *Instruction) {
	inst.Format = FormatTestBranch
	inst.Rn = uint8(word & 0x1F)
	inst.TestBit = uint8((word>>31)&0x1)<<5 | uint8((word>>19)&0x1F)
	inst.BranchOffset = signExtend((word>>5)&0x3FFF, 14)

	if (word>>24)&0x1 == 0 {
		inst.Op = OpTBZ
	} else {
		inst.Op = OpTBNZ
	}
}

// isBranchReg checks for branch to register.
// Format: 1101011 0 0 op[1:0] 11111 0000 0 0 Rn 00000
func (d *Decoder) isBranchReg(word uint32) bool {
	hi := (word >> 25) & 0x7F
	mid := (word >> 10) & 0x3F
	lo := word & 0x1F

	return hi == 0b1101011 && mid == 0b000000 && lo == 0b00000
}

// decodeBranchReg decodes BR, BLR, and RET.
func (d *Decoder) decodeBranchReg(word uint32, inst *Instruction) {
	op := (word >> 21) & 0x3 // bits [22:21]

	switch op {
	case 0b00:
		inst.Op = OpBR
	case 0b01:
		inst.Op = OpBLR
	case 0b10:
		inst.Op = OpRET
	default:
		return
	}

	inst.Format = FormatBranchReg
	inst.Rn = uint8((word >> 5) & 0x1F)
}
