package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/richardliu001/bloglite/internal/auth"
	"github.com/richardliu001/bloglite/internal/config"
)

// token prints an admin bearer token signed with auth.jwt_secret.
func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	author := flag.String("author", "", "author name carried as the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to auth.token_ttl")
	flag.Parse()

	token, err := issue(*configPath, *author, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(configPath, author string, ttl time.Duration) (string, error) {
	if author == "" {
		return "", errors.New("-author is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}
	return auth.GenerateToken(author, ttl, []byte(cfg.Auth.JWTSecret))
}
