package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Lefthander07/UserAPI/internal/model"
	"github.com/Lefthander07/UserAPI/internal/service"
	"github.com/Lefthander07/UserAPI/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
		Long:  "Create and list administrator accounts directly against the store, without going through the API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		login    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new administrator account",
		Example: `  userapi admin create --login root --name Administrator --password secret
  userapi admin create --login root --name Administrator  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(login, password, name)
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "Admin login (required, Latin letters and digits)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Admin display name")
	cmd.MarkFlagRequired("login")

	return cmd
}

func runAdminCreate(login, password, name string) error {
	if err := model.ValidateLogin(login); err != nil {
		return err
	}
	if err := model.ValidateName(name); err != nil {
		return err
	}

	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	st, err := openStoreFromConfig()
	if err != nil {
		return err
	}
	defer st.Close()

	users := service.NewUsers(st, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	u, err := users.Create(context.Background(), service.CreateParams{
		Login:    login,
		Password: password,
		Name:     name,
		Gender:   model.GenderUnknown,
		Admin:    true,
	}, uuid.Nil)
	if err != nil {
		if errors.Is(err, store.ErrLoginTaken) {
			return fmt.Errorf("login %q is already taken", login)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created administrator %q (id %s)\n", u.Login, u.ID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active administrator accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(jsonOutput bool) error {
	st, err := openStoreFromConfig()
	if err != nil {
		return err
	}
	defer st.Close()

	active, err := st.ListActive(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	type adminRow struct {
		ID    uuid.UUID `json:"id"`
		Login string    `json:"login"`
		Name  string    `json:"name"`
	}
	admins := []adminRow{}
	for _, u := range active {
		if u.Admin {
			admins = append(admins, adminRow{ID: u.ID, Login: u.Login, Name: u.Name})
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No active administrators. Use 'userapi admin create' to create one.")
		return nil
	}

	fmt.Printf("%-38s %-24s %-24s\n", "ID", "LOGIN", "NAME")
	fmt.Printf("%-38s %-24s %-24s\n", "--", "-----", "----")
	for _, a := range admins {
		fmt.Printf("%-38s %-24s %-24s\n", a.ID, a.Login, a.Name)
	}

	return nil
}

func openStoreFromConfig() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Config{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		DataDir: cfg.Database.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
