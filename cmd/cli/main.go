package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/infrastructure/auth"
	"github.com/tanbank/tanbank/internal/infrastructure/config"
	"github.com/tanbank/tanbank/internal/infrastructure/logger"
	"github.com/tanbank/tanbank/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tanbank-cli",
		Short: "TANBank CLI tool",
		Long:  `A command line interface for operating the TANBank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the TANBank API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/health", "")
		},
	}
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var token string
	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that all ledger entries sum to zero",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/ledger/consistency", token)
		},
	}
	consistencyCmd.Flags().StringVar(&token, "token", "", "Bearer token")

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token operations",
	}
	cmd.AddCommand(generateTokenCmd())
	return cmd
}

// generateTokenCmd mints a session token for development and testing.
func generateTokenCmd() *cobra.Command {
	var (
		userID string
		name   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}

			manager := auth.NewJWTManager(secret, ttl)
			token, err := manager.Generate(&domain.User{ID: userID, Name: name})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to embed in the token")
	cmd.Flags().StringVar(&name, "name", "", "Display name to embed in the token")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var path string
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Path to migration files")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
			return postgres.RunMigrations(cfg.DatabaseURL, path, log)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
			return postgres.RunMigrationsDown(cfg.DatabaseURL, path, log)
		},
	}

	cmd.AddCommand(upCmd)
	cmd.AddCommand(downCmd)
	return cmd
}

func getJSON(path, token string) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
