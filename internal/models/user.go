// Package models holds the data types shared by the replication core, the
// record stores and the RPC layer.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/usersync/internal/common"
)

// TupleSeparator joins the fields of a user record on the bulk-transfer wire.
const TupleSeparator = "|"

// UserRecord is a single directory entry. Account is the replication key;
// Username is not unique. Secret is opaque to replication.
type UserRecord struct {
	Username string
	Account  string
	Secret   string
}

// Tuple encodes the record as "username|account|secret".
func (u UserRecord) Tuple() string {
	return u.Username + TupleSeparator + u.Account + TupleSeparator + u.Secret
}

// ParseTuple decodes a "username|account|secret" string.
// ok is false unless the input has exactly three fields.
func ParseTuple(s string) (UserRecord, bool) {
	parts := strings.Split(s, TupleSeparator)
	if len(parts) != 3 {
		return UserRecord{}, false
	}
	return UserRecord{Username: parts[0], Account: parts[1], Secret: parts[2]}, true
}

// EncodeTuples converts records into their wire form, preserving order.
func EncodeTuples(users []UserRecord) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Tuple())
	}
	return out
}

// CheckTupleFields rejects values that would not survive the tuple codec.
func CheckTupleFields(fields ...string) error {
	for _, f := range fields {
		if strings.Contains(f, TupleSeparator) {
			return fmt.Errorf("%w: %q must not contain %q", common.ErrorValidation, f, TupleSeparator)
		}
	}
	return nil
}
