// Command devtoken mints an access token for local requests against the API.
// Identity is owned by an external provider; this tool signs with the same
// STOREFRONT_JWT_* settings the API verifies with.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "devtoken"})
	_ = godotenv.Load()

	userID := flag.String("user-id", "", "subject user id (uuid); ignored with -ensure")
	email := flag.String("email", "", "email claim")
	role := flag.String("role", string(enums.UserRoleCustomer), "role claim: customer|admin")
	ensure := flag.Bool("ensure", false, "look up or create the user by -email in the database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run in prod")
		os.Exit(1)
	}

	parsedRole, err := enums.ParseUserRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(2)
	}

	payload := auth.AccessTokenPayload{Email: *email, Role: parsedRole}
	switch {
	case *ensure:
		user, err := ensureUser(context.Background(), cfg, logg, *email, parsedRole)
		if err != nil {
			logg.Error(context.Background(), "failed to ensure user", err)
			os.Exit(1)
		}
		payload.UserID = user.ID
		payload.Email = user.Email
		payload.Role = user.Role
	case *userID != "":
		id, err := uuid.Parse(*userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user-id: %v\n", err)
			os.Exit(2)
		}
		payload.UserID = id
	default:
		payload.UserID = uuid.New()
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		logg.Error(context.Background(), "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func ensureUser(ctx context.Context, cfg *config.Config, logg *logger.Logger, email string, role enums.UserRole) (*users.UserDTO, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	defer dbClient.Close()

	user, created, err := users.NewRepository(dbClient.DB()).EnsureByEmail(ctx, users.CreateUserDTO{
		Email: email,
		Role:  role,
	})
	if err != nil {
		return nil, err
	}
	if created {
		logg.Info(logg.WithField(ctx, "user_id", user.ID.String()), "created dev user")
	}
	return users.FromModel(user), nil
}
