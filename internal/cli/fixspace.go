package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

// FixspaceCmd returns the one-off maintenance command that strips stray
// whitespace from stored vehicle records.
func FixspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixspace",
		Short: "Strip leading/trailing whitespace from stored vehicle records",
		RunE:  runFixspace,
	}
}

func runFixspace(cmd *cobra.Command, _ []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	fixed, err := repo.TrimCarWhitespace(cmd.Context(), db)
	if err != nil {
		return err
	}
	log.Info().Int("fixed", fixed).Msg("whitespace repair complete")
	fmt.Printf("fixed %d records\n", fixed)
	return nil
}
