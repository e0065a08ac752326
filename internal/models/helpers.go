package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString returns the string part of a SurrealDB RecordID, or an
// error when the record was created with a non-string ID.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("record ID is %T, want string", id.ID)
	}
	return s, nil
}

// MustRecordIDString is RecordIDString for IDs known to be strings, which
// is every ID this module creates. Panics otherwise.
func MustRecordIDString(id surrealmodels.RecordID) string {
	s, err := RecordIDString(id)
	if err != nil {
		panic(err)
	}
	return s
}
