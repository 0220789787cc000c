package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fridgesaver/fridgesaver/internal/database"
)

func main() {
	var (
		dbPath = flag.String("db", "./fridgesaver.db", "Path to the SQLite recipe catalog")
		status = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	if env := os.Getenv("DB_PATH"); env != "" {
		*dbPath = env
	}

	db, err := database.NewDB(database.Config{SQLitePath: *dbPath})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := database.NewMigrator(db.Conn(), database.Migrations())

	if *status {
		if err := migrator.Initialize(ctx); err != nil {
			log.Fatal("Failed to initialize migrator:", err)
		}

		applied, err := migrator.GetAppliedMigrations(ctx)
		if err != nil {
			log.Fatal("Failed to get applied migrations:", err)
		}

		migrations, err := migrator.LoadMigrations()
		if err != nil {
			log.Fatal("Failed to load migrations:", err)
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range migrations {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	pending, err := migrator.Pending(ctx)
	if err != nil {
		log.Fatal("Failed to check migrations:", err)
	}
	if len(pending) == 0 {
		fmt.Println("Database is up to date.")
		return
	}

	fmt.Printf("Applying %d migration(s) to %s...\n", len(pending), *dbPath)
	if err := migrator.Run(ctx); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	fmt.Println("Migrations completed successfully!")
}
