// Seeds the first admin account. Usage:
//
//	PG_DSN=... go run ./tools/seed_admin -mobile 9000000000 -password changeme
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	name := flag.String("name", "Admin", "display name")
	mobile := flag.String("mobile", "", "login mobile number (required)")
	password := flag.String("password", "", "login password (required)")
	flag.Parse()

	if *mobile == "" || *password == "" {
		log.Fatal("-mobile and -password are required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("PG_DSN")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt error: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	_, err = db.Exec(`
INSERT INTO users (id, name, mobile, email, address, role, password_hash, is_active, opening_amount, pending_amount, created_at, updated_at)
VALUES ($1, $2, $3, '', '', 'admin', $4, TRUE, 0, 0, $5, $5)
ON CONFLICT (mobile) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    name = EXCLUDED.name,
    role = 'admin',
    is_active = TRUE,
    updated_at = EXCLUDED.updated_at`,
		uuid.NewString(), *name, *mobile, string(hash), now)
	if err != nil {
		log.Fatalf("insert error: %v", err)
	}
	fmt.Printf("admin %q seeded\n", *mobile)
}
