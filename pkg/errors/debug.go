package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const maxChainDepth = 16

// PostgresFields is filled when the chain holds a server-side postgres error.
type PostgresFields struct {
	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
}

// ErrorDump is the log view of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`
	PostgresFields
}

func Dump(err error) ErrorDump {
	var d ErrorDump
	if err == nil {
		return d
	}
	d.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
		d.Retryable = MetadataFor(d.Code).Retryable
	}
	for e, depth := err, 0; e != nil && depth < maxChainDepth; e, depth = errors.Unwrap(e), depth+1 {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.PostgresFields = postgresFields(err)
	return d
}

// postgresFields reads pgx errors (gorm's postgres driver) and lib/pq errors (plain database/sql).
func postgresFields(err error) PostgresFields {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return PostgresFields{pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PostgresFields{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail}
	}
	return PostgresFields{}
}

func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
		"retryable":   d.Retryable,
	}
	if pg := d.PostgresFields; pg.PGCode != "" {
		fields["pg_code"] = pg.PGCode
		fields["pg_constraint"] = pg.PGConstraint
		fields["pg_table"] = pg.PGTable
		fields["pg_detail"] = pg.PGDetail
	}
	return fields
}
