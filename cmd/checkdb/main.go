package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"asdm/internal/app/ds"
	"asdm/internal/app/dsn"
	"asdm/internal/app/repository"
	"asdm/internal/app/role"
)

// checkdb connects with the environment DSN and prints the main counters.
func main() {
	_ = godotenv.Load()

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}
	repo, err := repository.New(dsnStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		log.Fatal("Database is not reachable:", err)
	}

	users, err := repo.CountUsersByRole(ctx)
	if err != nil {
		log.Fatal("Failed to count users:", err)
	}
	requests, err := repo.CountGrantRequestsByStatus(ctx)
	if err != nil {
		log.Fatal("Failed to count grant requests:", err)
	}
	paid, err := repo.TotalPaid(ctx)
	if err != nil {
		log.Fatal("Failed to sum payments:", err)
	}

	fmt.Println("Users in database:")
	for _, r := range role.All {
		fmt.Printf("  %-10s %d\n", r, users[r])
	}
	fmt.Println("Grant requests:")
	for _, s := range ds.GrantStatuses {
		fmt.Printf("  %-10s %d\n", s, requests[s])
	}
	fmt.Printf("Total paid: %.2f\n", paid)
}
