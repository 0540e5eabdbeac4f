package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

// predicates accumulates AND-ed conditions with positional bound parameters.
// Column names come from this package only; values are always bound.
type predicates struct {
	conds []string
	args  []any
}

// bind appends v and returns its placeholder.
func (p *predicates) bind(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicates) eq(column string, v any) *predicates {
	p.conds = append(p.conds, column+" = "+p.bind(v))
	return p
}

// scope restricts rows to one tenant; prefix is a table alias such as "z.".
func (p *predicates) scope(prefix string, s entity.Scope) *predicates {
	p.eq(prefix+"company_id", s.CompanyID)
	p.eq(prefix+"site_id", s.SiteID)
	return p
}

func (p *predicates) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableID(id *uuid.UUID) any {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseNullableID(s sql.NullString) *uuid.UUID {
	if !s.Valid || s.String == "" {
		return nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &id
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
