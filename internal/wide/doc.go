// Package wide provides SIMD-friendly wide types for lane-parallel math.
//
// The types are fixed-size arrays processed with simple per-element loops so
// the Go compiler can keep them in vector registers where the target allows.
// No assembly and no unsafe are used; on targets without vector units the
// same code runs lane by lane with identical results.
//
// # Wide Types
//
// F64x4: 4 float64 lanes, the width of one AVX2 double register.
// Mask4: 4 boolean lanes produced by comparisons and used to freeze lanes.
//
// # Rounding
//
// Every product is converted explicitly to float64 before it is combined with
// anything else. Go permits fusing x*y+z into one instruction; the explicit
// conversion forbids it, so a lane computes exactly what the equivalent
// scalar expression computes.
package wide
