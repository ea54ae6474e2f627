package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func likePattern(search string) string {
	return "%" + strings.TrimSpace(search) + "%"
}

func selectBuilt(ctx context.Context, db sqlx.QueryerContext, dest interface{}, builder squirrel.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}

func countBuilt(ctx context.Context, db sqlx.QueryerContext, builder squirrel.SelectBuilder) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// requireAffected turns an UPDATE that touched nothing into sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
