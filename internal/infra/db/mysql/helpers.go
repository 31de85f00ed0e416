package mysql

import (
	"database/sql"
	"encoding/json"
)

// jsonOrNull marshals v to a JSON string column, NULL when v is nil/empty.
func jsonOrNull(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" || string(b) == "[]" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// unmarshalIfSet decodes a JSON column into out when the column is non-NULL.
// A corrupt column is left as the zero value rather than failing the read.
func unmarshalIfSet(col sql.NullString, out any) {
	if !col.Valid || col.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(col.String), out)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
