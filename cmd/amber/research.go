package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astroamber/amber/config"
	"github.com/astroamber/amber/internal/research"
	srv "github.com/astroamber/amber/internal/server"
)

func researchCMD() *cobra.Command {
	var cfgPath string
	var sessionID string
	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Run one research session and print the notice stream as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			session, err := srv.BuildSession(cfg)
			if err != nil {
				return err
			}

			req := research.Request{
				Query:     strings.Join(args, " "),
				SessionID: sessionID,
			}

			enc := json.NewEncoder(os.Stdout)
			failed := false
			for notice := range session.Run(cmd.Context(), req) {
				if err := enc.Encode(notice); err != nil {
					return err
				}
				if notice.Status == research.StatusError {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("research did not complete")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", `session id (default "default")`)
	return cmd
}
