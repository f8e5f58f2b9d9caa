package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-screener/internal/skills"
)

var skillsJSON bool

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skills the parser recognizes",
	RunE:  runSkills,
}

// skillsOutput is the JSON written by skills --json.
type skillsOutput struct {
	Version string         `json:"version"`
	Count   int            `json:"count"`
	Skills  []skills.Entry `json:"skills"`
}

func init() {
	skillsCmd.Flags().BoolVar(&skillsJSON, "json", false, "Print the dictionary as JSON")
	rootCmd.AddCommand(skillsCmd)
}

func runSkills(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	dict, err := skills.Load(cfg.SkillsDictionary)
	if err != nil {
		return fmt.Errorf("failed to load skill dictionary: %w", err)
	}

	if skillsJSON {
		return writeJSON(cmd.OutOrStdout(), "", skillsOutput{
			Version: dict.Version(),
			Count:   dict.Len(),
			Skills:  dict.Entries(),
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Skill dictionary %s (%d skills)\n\n", dict.Version(), dict.Len())
	fmt.Fprintln(w, "SKILL\tCATEGORY\tSYNONYMS")
	for _, e := range dict.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, orDash(e.Category), orDash(strings.Join(e.Synonyms, ", ")))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
