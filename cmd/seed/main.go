// seed inserts two test users and a handful of todos into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/abekov/todo-api/internal/infrastructure/postgres"
	"golang.org/x/crypto/bcrypt"
)

type userSpec struct {
	name     string
	email    string
	password string
	todos    []todoSpec
}

type todoSpec struct {
	text      string
	completed bool
}

var users = []userSpec{
	{
		name:     "Alice Seed",
		email:    "alice@test.local",
		password: "password1",
		todos: []todoSpec{
			{"Buy groceries", false},
			{"Walk the dog", true},
			{"Write weekly report", false},
			{"Renew passport", false},
		},
	},
	{
		name:     "Bob Seed",
		email:    "bob@test.local",
		password: "password2",
		todos: []todoSpec{
			{"Fix leaking tap", true},
			{"Call the bank", false},
		},
	},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	if err := postgres.ApplyMigrations(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	var todosInserted int
	for _, spec := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(spec.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}

		// Idempotent re-runs: keep the existing user, refresh the hash.
		var userID string
		err = pool.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()
			RETURNING id`,
			spec.name, spec.email, string(hash),
		).Scan(&userID)
		if err != nil {
			log.Fatalf("upsert user %s: %v", spec.email, err)
		}

		for _, todo := range spec.todos {
			var completedAt *int64
			if todo.completed {
				var ms int64
				if err := pool.QueryRow(ctx,
					`SELECT (EXTRACT(EPOCH FROM NOW()) * 1000)::BIGINT`).Scan(&ms); err != nil {
					log.Fatalf("now millis: %v", err)
				}
				completedAt = &ms
			}

			_, err := pool.Exec(ctx, `
				INSERT INTO todos (owner_id, text, completed, completed_at)
				SELECT $1, $2, $3, $4
				WHERE NOT EXISTS (
					SELECT 1 FROM todos WHERE owner_id = $1 AND text = $2
				)`,
				userID, todo.text, todo.completed, completedAt,
			)
			if err != nil {
				log.Fatalf("insert todo %q: %v", todo.text, err)
			}
			todosInserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Users: %d   Todos: %d\n", len(users), todosInserted)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — log in:")
	fmt.Println()
	fmt.Println("    curl -si -X POST http://localhost:8080/users/login \\")
	fmt.Println("      -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"email\":\"alice@test.local\",\"password\":\"password1\"}'")
	fmt.Println()
	fmt.Println("    # Copy the x-auth response header, then:")
	fmt.Println()
	fmt.Println("    export TOKEN=eyJ...")
	fmt.Println()
	fmt.Println("  Step 2 — list your todos:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/todos -H \"x-auth: $TOKEN\"")
	fmt.Println()
	fmt.Println("  Step 3 — complete one (use an id from step 2):")
	fmt.Println()
	fmt.Println("    curl -s -X PATCH http://localhost:8080/todos/TODO_ID \\")
	fmt.Println("      -H \"x-auth: $TOKEN\" -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"completed\":true}'")
}
