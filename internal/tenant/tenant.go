// Package tenant identifies the business account that owns a row.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ID is the tenant key carried by every business table.
type ID int64

// Unassigned is the tenant of employee accounts not yet linked to an owner.
const Unassigned ID = 0

// hexDigits is how much of the email digest becomes the tenant id.
const hexDigits = 8

// FromEmail derives the tenant of an owner account from its registration email.
// The same email always yields the same tenant. Distinct emails can collide.
func FromEmail(email string) ID {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	prefix := hex.EncodeToString(sum[:])[:hexDigits]

	// 8 hex digits always fit in 32 bits
	n, _ := strconv.ParseInt(prefix, 16, 64)
	return ID(n)
}

// Parse reads a tenant id from its decimal form.
func Parse(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid tenant id %q", s)
	}
	return ID(n), nil
}

func (t ID) Int64() int64 {
	return int64(t)
}

func (t ID) String() string {
	return strconv.FormatInt(int64(t), 10)
}
