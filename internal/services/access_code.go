// Package services contains the business logic for the feedback portal backend.
package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	contextutils "feedbackportal/internal/utils"
)

// accessCodeAlphabet excludes ambiguous symbols (0/O, 1/I).
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	accessCodeLength    = 12
	accessCodeGroupSize = 4
)

// GenerateAccessCode returns a new random access code in display form,
// e.g. "A7K2-M9P4-XQ2R". The code is the submitter's only credential and is
// shown exactly once.
func GenerateAccessCode() (result0 string, err error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", contextutils.WrapError(err, "failed to read random bytes for access code")
	}

	var sb strings.Builder
	for i, b := range buf {
		if i > 0 && i%accessCodeGroupSize == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(accessCodeAlphabet[int(b)%len(accessCodeAlphabet)])
	}
	return sb.String(), nil
}

// NormalizeAccessCode strips dashes and spaces and uppercases the code so
// display and compact forms are equivalent.
func NormalizeAccessCode(code string) string {
	replacer := strings.NewReplacer("-", "", " ", "")
	return strings.ToUpper(replacer.Replace(code))
}

// HashAccessCode returns the lowercase hex SHA-256 digest of the normalized
// code. Only the digest is ever persisted; lookups go through it exclusively.
func HashAccessCode(code string) string {
	sum := sha256.Sum256([]byte(NormalizeAccessCode(code)))
	return hex.EncodeToString(sum[:])
}
