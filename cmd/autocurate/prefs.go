package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autocurate/autocurate/internal/preferences"
)

var prefsUserID int64

// prefsCmd manages user preferences.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage user digest preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a user's preferences as JSON",
	RunE:  runPrefsGet,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one preference field",
	Long: `Set one preference field for a user. Unknown fields are rejected.

List fields take comma-separated values, booleans take true/false.

Examples:
  autocurate prefs set --user 7 topics "go,databases"
  autocurate prefs set --user 7 frequency weekly
  autocurate prefs set --user 7 max_items 15`,
	Args: cobra.ExactArgs(2),
	RunE: runPrefsSet,
}

func init() {
	prefsCmd.PersistentFlags().Int64Var(&prefsUserID, "user", 0, "user id")
	_ = prefsCmd.MarkPersistentFlagRequired("user")
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}

func runPrefsGet(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	prefs, err := a.store.GetPreferences(cmd.Context(), prefsUserID)
	if err != nil {
		if errors.Is(err, preferences.ErrNotFound) {
			prefs = preferences.Default(prefsUserID)
		} else {
			return err
		}
	}

	out, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	prefs, err := a.store.GetPreferences(cmd.Context(), prefsUserID)
	if err != nil {
		if errors.Is(err, preferences.ErrNotFound) {
			prefs = preferences.Default(prefsUserID)
		} else {
			return err
		}
	}

	field, raw := args[0], args[1]
	value, err := parsePrefValue(field, raw)
	if err != nil {
		return err
	}
	if err := prefs.UpdateField(field, value); err != nil {
		return err
	}
	return a.store.SavePreferences(cmd.Context(), prefs)
}

// parsePrefValue converts the CLI string into the type UpdateField expects.
func parsePrefValue(field, raw string) (any, error) {
	switch field {
	case "topics", "categories":
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		return values, nil
	case "max_items":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("max_items requires an integer: %w", err)
		}
		return n, nil
	case "include_trending", "include_summary":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s requires true or false: %w", field, err)
		}
		return b, nil
	default:
		return raw, nil
	}
}
