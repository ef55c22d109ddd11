package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/phinze/inviscam/internal/profile"
	"github.com/spf13/cobra"
)

// fabSection names the floating button's settings, which no profile owns.
const fabSection = "fab"

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and edit profile settings",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		listProfiles(cmd.OutOrStdout(), store)
		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <profile|fab>",
	Short: "Show every setting of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return showSection(cmd.OutOrStdout(), store, args[0])
	},
}

var profilesSetCmd = &cobra.Command{
	Use:   "set <profile|fab> <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := setEntry(store, args[0], args[1], args[2]); err != nil {
			return err
		}
		return store.Save()
	},
}

var profilesResetCmd = &cobra.Command{
	Use:   "reset <profile|fab> [key]",
	Short: "Restore defaults for a profile or one of its settings",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		key := ""
		if len(args) == 2 {
			key = args[1]
		}
		if err := resetSection(store, args[0], key); err != nil {
			return err
		}
		return store.Save()
	},
}

var profilesSelectCmd = &cobra.Command{
	Use:   "select <profile>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		id, err := profile.ParseID(args[0])
		if err != nil {
			return err
		}
		if err := store.Select(id); err != nil {
			return err
		}
		return store.Save()
	},
}

func init() {
	profilesCmd.AddCommand(profilesListCmd, profilesShowCmd, profilesSetCmd, profilesResetCmd, profilesSelectCmd)
}

// openStore loads the configured profiles file. Edits are saved explicitly.
func openStore() (*profile.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store := profile.NewStore(cfg.ProfilesFile, nil, newLogger(cfg))
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func listProfiles(w io.Writer, store *profile.Store) {
	selected := store.Selected().Get()
	for _, id := range profile.IDs() {
		mark := " "
		if id == selected {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-18s %s\n", mark, id, id.Title())
	}
}

// section resolves a profile name, or "fab", to its settings.
func section(store *profile.Store, name string) ([]profile.Entry, func(string) (profile.Entry, bool), error) {
	if name == fabSection {
		return store.Fab().Entries(), store.Fab().Entry, nil
	}
	id, err := profile.ParseID(name)
	if err != nil {
		return nil, nil, err
	}
	s := store.Profile(id)
	return s.Entries(), s.Entry, nil
}

func showSection(w io.Writer, store *profile.Store, name string) error {
	entries, _, err := section(store, name)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDEFAULT\t")
	for _, e := range entries {
		value := e.String()
		if e.Locked() {
			value += " (locked)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", e.Key(), value, e.DefaultString())
	}
	return tw.Flush()
}

func setEntry(store *profile.Store, name, key, value string) error {
	_, lookup, err := section(store, name)
	if err != nil {
		return err
	}
	e, ok := lookup(key)
	if !ok {
		return fmt.Errorf("%s has no setting %q", name, key)
	}
	if e.Locked() {
		return fmt.Errorf("%s.%s is locked", name, key)
	}
	if err := e.SetString(value); err != nil {
		return fmt.Errorf("setting %s.%s: %w", name, key, err)
	}
	return nil
}

func resetSection(store *profile.Store, name, key string) error {
	entries, lookup, err := section(store, name)
	if err != nil {
		return err
	}
	if key == "" {
		for _, e := range entries {
			e.Reset()
		}
		return nil
	}
	e, ok := lookup(key)
	if !ok {
		return fmt.Errorf("%s has no setting %q", name, key)
	}
	e.Reset()
	return nil
}
