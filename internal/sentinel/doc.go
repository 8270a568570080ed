// Package sentinel provides an immutable, comparable error type for
// declaring package-level sentinel errors as constants instead of
// errors.New variables, while remaining compatible with errors.Is across
// wrapped error chains.
package sentinel
