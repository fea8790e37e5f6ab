package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"partner-portal.backend/internal/config"
	"partner-portal.backend/pkg/jwt"
)

var (
	printfFn = fmt.Printf
	fatalfFn = log.Fatalf
	loadCfg  = config.Load
)

type tokenRequest struct {
	partnerID uuid.UUID
	email     string
	provider  string
}

// resolveRequest reads [partner-id] [email] [provider]; missing values get local defaults
func resolveRequest(args []string) (tokenRequest, error) {
	req := tokenRequest{
		partnerID: uuid.New(),
		email:     "dev@partner.local",
		provider:  "kakao",
	}
	if len(args) > 0 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return req, fmt.Errorf("invalid partner id %q: %w", args[0], err)
		}
		req.partnerID = id
	}
	if len(args) > 1 {
		req.email = args[1]
	}
	if len(args) > 2 {
		req.provider = args[2]
	}
	return req, nil
}

func issue(cfg *config.Config, req tokenRequest) (string, error) {
	expiry := cfg.JWT.Expiry
	if expiry < time.Hour {
		expiry = time.Hour
	}
	return jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, expiry).IssueToken(req.partnerID, req.email, req.provider)
}

func main() {
	cfg := loadCfg()
	if cfg.Server.IsProduction() {
		fatalfFn("devtoken refuses to run with SERVER_ENV=production")
		return
	}

	req, err := resolveRequest(os.Args[1:])
	if err != nil {
		fatalfFn("%v", err)
		return
	}

	token, err := issue(cfg, req)
	if err != nil {
		fatalfFn("Failed to issue token: %v", err)
		return
	}

	printfFn("Partner ID: %s\n", req.partnerID)
	printfFn("Authorization: Bearer %s\n", token)
}
