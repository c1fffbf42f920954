package sqlstore

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
)

// encodeJSON marshals v, substituting fallback for nil values.
func encodeJSON(v interface{}, fallback string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return fallback, nil
	}
	return string(data), nil
}

func encodeMap(m map[string]interface{}) (string, error) {
	return encodeJSON(m, "{}")
}

// encodeEmbedding stores absent embeddings as NULL.
func encodeEmbedding(v []float64) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeMap(s sql.NullString) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	if !s.Valid || s.String == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	return m, nil
}

func decodeEmbedding(s sql.NullString) ([]float64, error) {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil, nil
	}
	var v []float64
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeInto(s sql.NullString, dst interface{}) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}

// RebindDollar rewrites '?' placeholders into PostgreSQL's $1, $2, ... form.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
