// Package extract provides the pure functions used to pull a scheduled value
// out of a raw response buffer.
//
// The package is internal to risewatch and has no state and no I/O:
//
//   - [Token]: locates a needle inside a bounded lookahead window and copies
//     the delimiter-terminated token that follows it into a caller-owned array
//   - [Field]: [Token] for a configured keyword, either a bare JSON field name
//     or a literal pattern (see [Needle])
//   - [ParseUint]: converts an ASCII digit string into an unsigned integer,
//     rejecting anything that is not a digit
//
// Token and ParseUint do not allocate. Callers size their output arrays once and reuse
// them for every poll cycle.
package extract
