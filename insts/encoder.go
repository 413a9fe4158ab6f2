package insts

// EncodeB encodes B with a byte offset.
func EncodeB(offset int32) uint32 {
	imm26 := uint32(offset/4) & 0x3FFFFFF
	return 0x14000000 | imm26
}

// EncodeBL encodes BL with a byte offset.
func EncodeBL(offset int32) uint32 {
	imm26 := uint32(offset/4) & 0x3FFFFFF
	return 0x94000000 | imm26
}

// EncodeBCond encodes B.cond with a byte offset.
func EncodeBCond(offset int32, cond Cond) uint32 {
	imm19 := uint32(offset/4) & 0x7FFFF
	return 0x54000000 | (imm19 << 5) | uint32(cond&0xF)
}

// EncodeCBZ encodes CBZ Xt (or Wt) with a byte offset.
func EncodeCBZ(rt uint8, offset int32, is64 bool) uint32 {
	return encodeCompareBranch(rt, offset, is64, false)
}

// EncodeCBNZ encodes CBNZ Xt (or Wt) with a byte offset.
func EncodeCBNZ(rt uint8, offset int32, is64 bool) uint32 {
	return encodeCompareBranch(rt, offset, is64, true)
}

func encodeCompareBranch(rt uint8, offset int32, is64, nonZero bool) uint32 {
	word := uint32(0x34000000)
	if is64 {
		word |= 1 << 31
	}
	if nonZero {
		word |= 1 << 24
	}
	imm19 := uint32(offset/4) & 0x7FFFF
	return word | (imm19 << 5) | uint32(rt&0x1F)
}

// EncodeTBZ encodes TBZ Rt, #bit with a byte offset.
func EncodeTBZ(rt, bit uint8, offset int32) uint32 {
	return encodeTestBranch(rt, bit, offset, false)
}

// EncodeTBNZ encodes TBNZ Rt, #bit with a byte offset.
func EncodeTBNZ(rt, bit uint8, offset int32) uint32 {
	return encodeTestBranch(rt, bit, offset, true)
}

func encodeTestBranch(rt, bit uint8, offset int32, nonZero bool) uint32 {
	word := uint32(0x36000000)
	word |= uint32(bit>>5&0x1) << 31
	word |= uint32(bit&0x1F) << 19
	if nonZero {
		word |= 1 << 24
	}
	imm14 := uint32(offset/4) & 0x3FFF
	return word | (imm14 << 5) | uint32(rt&0x1F)
}

// EncodeBR encodes BR Xn.
func EncodeBR(rn uint8) uint32 {
	return 0xD61F0000 | uint32(rn&0x1F)<<5
}

// EncodeBLR encodes BLR Xn.
func EncodeBLR(rn uint8) uint32 {
	return 0xD63F0000 | uint32(rn&0x1F)<<5
}

// EncodeRET encodes RET (X30).
func EncodeRET() uint32 {
	return 0xD65F03C0
}
