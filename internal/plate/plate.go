// Package plate implements Singapore license plate handling: shape
// validation, checksum-suffix computation for partial plates, and brand-alias
// resolution for free-text lookups.
package plate

import (
	"regexp"
	"strings"
)

// plateShape accepts 1-3 series letters, 1-4 digits, and an optional
// checksum letter.
var plateShape = regexp.MustCompile(`^[A-Z]{1,3}\d{1,4}[A-Z]?$`)

// checksumLetters maps check digits 0-18 to their letter. F, I, O, N, Q and W
// are reserved and excluded from the sequence.
const checksumLetters = "ABCDEGHJKLMPRSTUXYZ"

// weights assigned to the plate characters, left to right, when computing
// the checksum.
var weights = [6]int{9, 4, 5, 4, 3, 2}

// IsPlate reports whether the trimmed, upper-cased input looks like a
// license plate. Shape validation happens here; Normalize itself never
// rejects input.
func IsPlate(s string) bool {
	return plateShape.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// Normalize upper-cases and trims a plate and, if it does not already end in
// a letter, appends the computed checksum letter. Deterministic and pure;
// complete plates are returned unchanged.
func Normalize(input string) string {
	p := strings.ToUpper(strings.TrimSpace(input))
	if p == "" {
		return p
	}
	if last := p[len(p)-1]; last >= 'A' && last <= 'Z' {
		return p
	}

	letters, digits := split(p)

	// District prefixes S and G are exempt from the weighting when the
	// series has three letters: only the trailing two participate.
	series := letters
	if len(series) == 3 && (series[0] == 'S' || series[0] == 'G') {
		series = series[1:]
	}

	// The weighting scheme covers at most two series letters plus four
	// digits. Plates outside it have no computable checksum and pass
	// through untouched.
	if len(series) > 2 || len(digits) > 4 {
		return p
	}

	// Weight slot 0 is reserved for two-letter series; single-letter series
	// start at slot 1.
	slot := 0
	if len(series) == 1 {
		slot = 1
	}

	sum := 0
	for i := 0; i < len(series); i++ {
		sum += int(series[i]-'A'+1) * weights[slot]
		slot++
	}

	// Digits are conceptually right-aligned in the remaining four slots.
	slot += 4 - len(digits)
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weights[slot]
		slot++
	}

	class := sum % 19
	check := 0
	if class != 0 {
		check = 19 - class
	}
	return p + string(checksumLetters[check])
}

// split separates the leading letter run from the digit tail. Callers are
// expected to have validated the shape with IsPlate first.
func split(p string) (letters, digits string) {
	i := 0
	for i < len(p) && p[i] >= 'A' && p[i] <= 'Z' {
		i++
	}
	return p[:i], p[i:]
}
