package probe

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

func probeMySQL(ctx context.Context, spec Spec) Result {
	dsn := fmt.Sprintf("tcp(%s:%d)/", spec.Host, spec.Port)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("mysql open failed: %w", err)}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("mysql ping failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
