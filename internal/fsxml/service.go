package fsxml

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Queryer is the minimal read surface the resolvers need from a pgx pool.
// *pgxpool.Pool satisfies it, as does pgxmock in tests. The resolvers are
// strictly read-only; nothing here can begin a transaction or exec.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
