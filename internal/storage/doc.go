// Package storage archives closed orders in SQLite.
//
// Each archived order keeps:
//   - The order header (session, total, completion flag)
//   - Its order lines in extraction order
//   - The full conversation transcript that produced it
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migrations (semver)
//   - orders: One row per archived order, totals stored as decimal text
//   - order_lines: Item, quantity and line price per order
//   - order_turns: Role-tagged transcript per order
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.baozi/orders.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.SaveOrder(ctx, &storage.Order{
//	    SessionID: sessionID,
//	    Total:     decimal.RequireFromString("13.5"),
//	    Completed: true,
//	    Lines: []storage.OrderLine{
//	        {Item: "鲜肉包", Quantity: 2, Price: decimal.RequireFromString("6")},
//	    },
//	})
//
// # Transactions
//
// SaveOrder runs in its own transaction. Use BeginTx to group several
// orders atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.SaveOrder(ctx, first)
//	_ = tx.SaveOrder(ctx, second)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Modes
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// cgo_sqlite tag switches to github.com/mattn/go-sqlite3.
package storage
