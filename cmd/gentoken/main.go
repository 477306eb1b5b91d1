package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/accountd/internal/service/auth"
)

// Print access token for API client, signed with the service secret key
func main() {
	fs := pflag.NewFlagSet("gentoken", pflag.ExitOnError)
	secretKey := fs.StringP("secret-key", "s", os.Getenv("SECRET_KEY"), "Secret key the service is run with")
	client := fs.StringP("client", "c", "", "Client name to issue token for")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = fs.Parse(os.Args[1:])

	if *client == "" {
		fmt.Fprintln(os.Stderr, "client name is required")
		os.Exit(1)
	}

	tokenManager, err := auth.New(auth.Config{SecretKey: *secretKey, AccessTTL: *ttl})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while creating token manager: %v\n", err)
		os.Exit(1)
	}

	token, err := tokenManager.Issue(*client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while issuing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token.Value)
}
