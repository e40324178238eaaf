package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"housing/internal/identity"
	"housing/internal/user"
	"housing/pkg/config"
	"housing/pkg/db"
	"housing/pkg/supabase"
)

const actor = "bootstrap"

// bootstrapadmin creates the first admin, or promotes an existing staff row.
// Every later account goes through the admin users API.
func main() {
	var (
		email    = flag.String("email", "", "admin email")
		password = flag.String("password", "", "initial password (required when the account does not exist yet)")
		name     = flag.String("name", "", "full name")
	)
	flag.Parse()

	*email = strings.TrimSpace(*email)
	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.Supabase.URL == "" || cfg.Supabase.ServiceRoleKey == "" {
		fmt.Fprintln(os.Stderr, "SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set (env or .env)")
		os.Exit(2)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	users := user.NewRepository(pool)

	existing, err := users.FindByEmail(ctx, *email)
	switch {
	case err == nil:
		if existing.Role == identity.RoleAdmin {
			fmt.Printf("%s is already an admin (id=%s)\n", existing.Email, existing.ID)
			return
		}
		u, err := users.SetRole(ctx, actor, existing.ID, identity.RoleAdmin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "promote: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("promoted %s to admin (id=%s)\n", u.Email, u.ID)
		return
	case !errors.Is(err, user.ErrNotFound):
		fmt.Fprintf(os.Stderr, "lookup: %v\n", err)
		os.Exit(1)
	}

	if *password == "" {
		fmt.Fprintln(os.Stderr, "missing -password for a new account")
		os.Exit(2)
	}

	sb := supabase.New(supabase.Options{
		BaseURL:        cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
	})
	created, err := sb.AdminCreateUser(ctx, supabase.CreateUserParams{
		Email:        *email,
		Password:     *password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"full_name": *name},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create identity: %v\n", err)
		os.Exit(1)
	}

	u, err := users.Insert(ctx, actor, user.User{
		ID:       created.ID,
		Email:    *email,
		FullName: *name,
		Role:     identity.RoleAdmin,
	})
	if err != nil {
		// Leave no identity without a staff row.
		if derr := sb.AdminDeleteUser(ctx, created.ID); derr != nil {
			fmt.Fprintf(os.Stderr, "rollback identity %s: %v\n", created.ID, derr)
		}
		fmt.Fprintf(os.Stderr, "insert user: %v\n", err)
		os.Exit(1)
	}

	// Sign in once with the new credentials and read the identity back.
	session, err := sb.SignInWithPassword(ctx, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "created admin %s but sign-in failed: %v\n", u.Email, err)
		os.Exit(1)
	}
	who, err := sb.GetUser(ctx, session.AccessToken)
	if err != nil || who.ID != u.ID {
		fmt.Fprintf(os.Stderr, "created admin %s but the hosted identity does not match: %v\n", u.Email, err)
		os.Exit(1)
	}
	_ = sb.SignOut(ctx, session.AccessToken)

	fmt.Printf("created admin %s (id=%s)\n", u.Email, u.ID)
}
