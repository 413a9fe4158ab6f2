// Package insts provides ARM64 branch instruction definitions, decoding, and
// encoding.
//
// The frontend only needs to know what kind of branch it fetched, so the
// decoder classifies the branch instruction classes and leaves everything
// else as OpUnknown:
//   - Unconditional branch (immediate): B, BL
//   - Conditional branch: B.cond, CBZ, CBNZ, TBZ, TBNZ
//   - Branch to register: BR, BLR, RET
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x54000040) // B.EQ #8
//	fmt.Printf("Op: %v, conditional: %v\n", inst.Op, inst.IsConditional())
package insts
