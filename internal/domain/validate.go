package domain

import "fmt"

// Pure field validators, shared by the core and any interaction shell.
// Each returns nil or a *ValidationError; none of them touch the store.

const (
	maxNameLen    = 32
	maxAddressLen = 256
	maxYear       = 2021
	maxExperience = 99
	maxOdometer   = 9_999_999
	vinLen        = 16
)

// ValidateName checks a first/last name or make/model field (1-32 chars).
// The field name is echoed back in the error.
func ValidateName(field, v string) error {
	if len(v) < 1 || len(v) > maxNameLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be 1-%d characters", maxNameLen)}
	}
	return nil
}

// ValidateAddress checks a customer address (1-256 chars).
func ValidateAddress(v string) error {
	if len(v) < 1 || len(v) > maxAddressLen {
		return &ValidationError{Field: "address", Reason: fmt.Sprintf("must be 1-%d characters", maxAddressLen)}
	}
	return nil
}

// ValidatePhone checks the fixed NXX-NXX-XXXX phone shape: three digit
// groups separated by hyphens.
func ValidatePhone(v string) error {
	bad := &ValidationError{Field: "phone", Reason: "must match NXX-NXX-XXXX"}
	if len(v) != 12 || v[3] != '-' || v[7] != '-' {
		return bad
	}
	for i, c := range v {
		if i == 3 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return bad
		}
	}
	return nil
}

// ValidateVIN checks the natural car key. The core only enforces the
// 16-character length; finer shape checks belong to the intake shell.
func ValidateVIN(v string) error {
	if len(v) != vinLen {
		return &ValidationError{Field: "vin", Reason: fmt.Sprintf("must be exactly %d characters", vinLen)}
	}
	return nil
}

// ValidateYear checks a car production year (1-2021).
func ValidateYear(v int) error {
	if v <= 0 || v > maxYear {
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("must be 1-%d", maxYear)}
	}
	return nil
}

// ValidateExperience checks a mechanic's years of experience (1-99).
func ValidateExperience(v int) error {
	if v <= 0 || v > maxExperience {
		return &ValidationError{Field: "experience", Reason: fmt.Sprintf("must be 1-%d years", maxExperience)}
	}
	return nil
}

// ValidateOdometer checks an odometer reading (0-9,999,999).
func ValidateOdometer(v int) error {
	if v < 0 || v > maxOdometer {
		return &ValidationError{Field: "odometer", Reason: fmt.Sprintf("must be 0-%d", maxOdometer)}
	}
	return nil
}

// ValidateComment checks a closing comment. Unlike the intake complaint,
// which may be empty, the closing comment is required.
func ValidateComment(v string) error {
	if len(v) < 1 {
		return &ValidationError{Field: "comment", Reason: "must not be empty"}
	}
	return nil
}

// ValidateBill checks a bill amount (non-negative integer).
func ValidateBill(v int) error {
	if v < 0 {
		return &ValidationError{Field: "bill", Reason: "must not be negative"}
	}
	return nil
}
