package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

// Swappable for tests.
var (
	runMigrationsUp   = postgres.RunMigrations
	runMigrationsDown = postgres.RunMigrationsDown
	migrationVersion  = postgres.MigrationVersion
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Ledger CLI tool",
		Long:  `A command line interface for the ledger HTTP API and its database migrations.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountsCmd(), transactionsCmd(), entriesCmd(), ledgerCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}
	cmd.AddCommand(
		createAccountCmd(),
		getAccountCmd(),
		listAccountsCmd(),
		balanceCmd(),
		setAccountActiveCmd("deactivate", "Stop an account from accepting new entries"),
		setAccountActiveCmd("reactivate", "Re-enable posting against an account"),
	)
	return cmd
}

func createAccountCmd() *cobra.Command {
	var ownerKind, ownerID, accountType, currency, name, number string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodPost, "/api/v1/accounts/", map[string]any{
				"owner_kind":     ownerKind,
				"owner_id":       ownerID,
				"account_type":   accountType,
				"currency":       currency,
				"name":           name,
				"account_number": number,
			})
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&ownerKind, "owner-kind", "", "Owner kind (e.g. user, organization)")
	cmd.Flags().StringVar(&ownerID, "owner-id", "", "Owner identifier")
	cmd.Flags().StringVar(&accountType, "type", "", "Account type (asset, liability, equity, revenue, expense)")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&number, "number", "", "External account number")
	_ = cmd.MarkFlagRequired("owner-kind")
	_ = cmd.MarkFlagRequired("owner-id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("currency")

	return cmd
}

func getAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-id>",
		Short: "Get an account by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}
}

func listAccountsCmd() *cobra.Command {
	var (
		ownerKind, ownerID, accountType, currency string
		limit, offset                             int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, optionally filtered by owner, type, or currency",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if ownerKind != "" {
				q.Set("owner_kind", ownerKind)
			}
			if ownerID != "" {
				q.Set("owner_id", ownerID)
			}
			if accountType != "" {
				q.Set("type", accountType)
			}
			if currency != "" {
				q.Set("currency", currency)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}

			path := "/api/v1/accounts/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			data, err := apiRequest(http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			var result dto.ListAccountsResponse
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("%-36s %-10s %-8s %-20s %-6s\n", "ID", "TYPE", "CURRENCY", "NAME", "ACTIVE")
			for _, a := range result.Accounts {
				fmt.Printf("%-36s %-10s %-8s %-20s %-6v\n",
					a.ID, a.AccountType, a.Currency, truncate(a.Name, 20), a.Active)
			}
			fmt.Printf("\nTotal: %d\n", result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerKind, "owner-kind", "", "Filter by owner kind")
	cmd.Flags().StringVar(&ownerID, "owner-id", "", "Filter by owner identifier")
	cmd.Flags().StringVar(&accountType, "type", "", "Filter by account type")
	cmd.Flags().StringVar(&currency, "currency", "", "Filter by currency")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func balanceCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Get the derived balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + args[0] + "/balance"
			if asOf != "" {
				path += "?as_of=" + url.QueryEscape(asOf)
			}

			data, err := apiRequest(http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Balance as of this RFC3339 time (inclusive)")

	return cmd
}

func setAccountActiveCmd(action, short string) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   action + " <account-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodPost, "/api/v1/accounts/"+args[0]+"/"+action, map[string]any{
				"actor": actor,
			})
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded in the audit event")

	return cmd
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}
	cmd.AddCommand(postTransactionCmd(), getTransactionCmd(), reverseTransactionCmd())
	return cmd
}

func postTransactionCmd() *cobra.Command {
	var (
		description, effectiveAt string
		entryFlags               []string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced transaction",
		Long: `Post a balanced transaction. Each --entry flag carries one leg as
account-id:type:amount[:description], e.g. --entry acc-1:debit:100.50.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]map[string]any, 0, len(entryFlags))
			for _, raw := range entryFlags {
				entry, err := parseEntryFlag(raw)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			payload := map[string]any{
				"description": description,
				"entries":     entries,
			}
			if effectiveAt != "" {
				payload["effective_at"] = effectiveAt
			}

			data, err := apiRequest(http.MethodPost, "/api/v1/transactions/", payload)
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Transaction description")
	cmd.Flags().StringVar(&effectiveAt, "effective-at", "", "Business time of the movement (RFC3339, defaults to now)")
	cmd.Flags().StringArrayVar(&entryFlags, "entry", nil, "Entry leg as account-id:type:amount[:description] (repeatable)")
	_ = cmd.MarkFlagRequired("entry")

	return cmd
}

func getTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Get a transaction with its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodGet, "/api/v1/transactions/"+args[0], nil)
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}
}

func reverseTransactionCmd() *cobra.Command {
	var reason, actor string

	cmd := &cobra.Command{
		Use:   "reverse <transaction-id>",
		Short: "Reverse every entry of a posted transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodPost, "/api/v1/transactions/"+args[0]+"/reverse", map[string]any{
				"reason": reason,
				"actor":  actor,
			})
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the transaction is being reversed")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded in the audit event")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Entry operations",
	}
	cmd.AddCommand(getEntryCmd(), reverseEntryCmd())
	return cmd
}

func getEntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <entry-id>",
		Short: "Get an entry by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodGet, "/api/v1/entries/"+args[0], nil)
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}
}

func reverseEntryCmd() *cobra.Command {
	var reason, actor string

	cmd := &cobra.Command{
		Use:   "reverse <entry-id>",
		Short: "Post a new entry that negates a prior one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodPost, "/api/v1/entries/"+args[0]+"/reverse", map[string]any{
				"reason": reason,
				"actor":  actor,
			})
			if err != nil {
				return err
			}
			return printResponse(data)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the entry is being reversed")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded in the audit event")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger-wide reads",
	}
	cmd.AddCommand(trialBalanceCmd(), consistencyCmd())
	return cmd
}

func trialBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trial-balance",
		Short: "Show per-currency debit and credit totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiRequest(http.MethodGet, "/api/v1/ledger/trial-balance", nil)
			if err != nil {
				return err
			}

			var result dto.TrialBalanceResponse
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("%-8s %18s %18s %9s\n", "CURRENCY", "DEBITS", "CREDITS", "BALANCED")
			for _, row := range result.Rows {
				fmt.Printf("%-8s %18s %18s %9v\n", row.Currency, row.Debits, row.Credits, row.Balanced)
			}
			fmt.Printf("\nLedger balanced: %v\n", result.Balanced)
			return nil
		},
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that posted debits equal posted credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				fmt.Printf("Consistency check FAILED (Status: %d)\n", resp.StatusCode)
				fmt.Printf("Status: %s\n", result["status"])
				return errors.New("ledger is inconsistent")
			}

			fmt.Println("Consistency check PASSED")
			fmt.Printf("Status: %s\n", result["status"])
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "internal/infrastructure/postgres/migrations", "Migrations directory")
	_ = cmd.MarkPersistentFlagRequired("database-url")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrationsUp(databaseURL, path); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrationsDown(databaseURL, path); err != nil {
				return err
			}
			fmt.Println("rolled back one migration")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := migrationVersion(databaseURL, path)
			if err != nil {
				return err
			}
			if version == 0 && !dirty {
				fmt.Println("no migrations applied")
				return nil
			}
			fmt.Printf("version: %d dirty: %v\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

// apiRequest performs one call against the ledger API and returns the raw
// response body. Any status >= 400 is surfaced as an error carrying the body.
func apiRequest(method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s failed (status %d): %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}

// parseEntryFlag splits account-id:type:amount[:description] into the
// request shape. The description may itself contain colons.
func parseEntryFlag(raw string) (map[string]any, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid entry %q: want account-id:type:amount[:description]", raw)
	}

	entry := map[string]any{
		"account_id": parts[0],
		"entry_type": parts[1],
		"amount":     parts[2],
	}
	if len(parts) == 4 && parts[3] != "" {
		entry["description"] = parts[3]
	}

	return entry, nil
}

func printResponse(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	printJSON(v)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
