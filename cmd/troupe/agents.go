package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/troupehq/troupe/internal/config"
	"github.com/troupehq/troupe/internal/store"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage character profiles",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored character profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openConfiguredStore()
		if err != nil {
			return err
		}
		defer st.Close()

		profiles, err := st.ListAgentProfiles()
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No agents stored. Import some with: troupe agents import <file.yaml>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tCANON")
		for _, p := range profiles {
			lock := ""
			if p.CanonLocked {
				lock = "locked"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.KnowledgeDomain, lock)
		}
		return w.Flush()
	},
}

var agentsImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import character profiles and relationships from YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rf, err := loadRosterFile(args[0])
		if err != nil {
			return err
		}

		st, err := openConfiguredStore()
		if err != nil {
			return err
		}
		defer st.Close()

		agents, edges, err := importRoster(st, rf)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d agents and %d relationships\n", agents, edges)
		return nil
	},
}

var agentsLockUnlock bool

var agentsLockCmd = &cobra.Command{
	Use:   "lock [agent-id]",
	Short: "Canon-lock a profile so imports cannot overwrite it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openConfiguredStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetCanonLocked(args[0], !agentsLockUnlock); err != nil {
			return err
		}
		verb := "locked"
		if agentsLockUnlock {
			verb = "unlocked"
		}
		fmt.Printf("%s %s\n", verb, args[0])
		return nil
	},
}

func openConfiguredStore() (*store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	agentsLockCmd.Flags().BoolVar(&agentsLockUnlock, "unlock", false, "Remove the canon lock instead")

	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsImportCmd)
	agentsCmd.AddCommand(agentsLockCmd)
}
