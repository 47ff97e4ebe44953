package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hiryo-backoffice/config"
	"hiryo-backoffice/database"
	"hiryo-backoffice/models"
	"hiryo-backoffice/store"
)

const usage = "expected 'migrate' or 'add-admin' subcommand"

func main() {
	addAdminCmd := flag.NewFlagSet("add-admin", flag.ExitOnError)
	email := addAdminCmd.String("email", "", "Email address the admin logs in with")
	name := addAdminCmd.String("name", "", "Full name of the admin")
	password := addAdminCmd.String("password", "", "Password for the new admin")
	role := addAdminCmd.String("role", "Administrator", "Role recorded on the admin account")

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		_ = migrateCmd.Parse(os.Args[2:])
		runMigrations(ctx, cfg)
	case "add-admin":
		_ = addAdminCmd.Parse(os.Args[2:])
		if *email == "" || *name == "" || *password == "" {
			fmt.Println("email, name and password are required")
			addAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		createAdmin(ctx, cfg, *name, *email, *password, *role)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func runMigrations(ctx context.Context, cfg *config.Config) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fatal("Failed to open database", err)
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db, database.Migrations())
	if err != nil {
		fatal("Migration failed", err)
	}
	if len(applied) == 0 {
		fmt.Println("Schema is up to date.")
		return
	}
	for _, v := range applied {
		fmt.Printf("Applied %s\n", v)
	}
}

func createAdmin(ctx context.Context, cfg *config.Config, name, email, password, role string) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fatal("Failed to open database", err)
	}
	defer db.Close()

	id, err := store.New(db, cfg).AddAdmin(ctx, models.NewAdmin{
		FullName: name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		fatal("Failed to create admin", err)
	}
	fmt.Printf("Admin '%s' created with id %d.\n", email, id)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
