// Package main provides account moderation utilities for linkboard.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"linkboard/internal/bootstrap"
	"linkboard/internal/config"
	"linkboard/internal/models"
	"linkboard/internal/repository"
	"linkboard/internal/service"

	"github.com/spf13/pflag"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go show <id|username>             - Show account status")
	fmt.Println("  go run ./cmd/admin/main.go ban <id|username> [reason...]  - Ban an account")
	fmt.Println("  go run ./cmd/admin/main.go delete <id|username>           - Mark an account deleted")
}

// Account status changes are terminal and are not exposed over HTTP.
func main() {
	if err := config.BindFlags(pflag.CommandLine); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}
	pflag.Parse()
	if pflag.NArg() < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	users := service.NewUserService(repository.NewUserRepository(db))

	user, err := users.Lookup(ctx, pflag.Arg(1))
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}

	switch command := pflag.Arg(0); command {
	case "show":
		printUser(user)
	case "ban", "delete":
		status := models.UserStatusBanned
		if command == "delete" {
			status = models.UserStatusDeleted
		}
		updated, err := users.SetStatus(ctx, service.SetStatusInput{
			UserID: user.ID,
			Status: string(status),
			Reason: strings.Join(pflag.Args()[2:], " "),
		})
		if err != nil {
			log.Fatalf("Status change failed: %v", err)
		}
		printUser(updated)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUser(u *models.User) {
	fmt.Printf("User %s (ID: %d) status=%s since=%s\n", u.Username, u.ID, u.Status, u.StatusChangedAt.Format("2006-01-02 15:04:05"))
	if u.BannedReason != nil {
		fmt.Printf("  reason: %s\n", *u.BannedReason)
	}
}
