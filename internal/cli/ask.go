package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	memstore "github.com/PabloGalante/weekendship/internal/adapters/storage/memory"
	"github.com/PabloGalante/weekendship/internal/app/conversation"
	"github.com/PabloGalante/weekendship/internal/domain"
	"github.com/PabloGalante/weekendship/internal/observability"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ask <idea>",
		Short: "Generate a one-shot weekend plan and print it as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// stdout carries the result.
			observability.Setup(cmd.ErrOrStderr(), observability.ParseLevel(cfg.Log.Level), "text")

			model, err := newModelClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			svc := conversation.NewService(model, memstore.NewConversationStore())
			conv, err := svc.ProcessMessage(cmd.Context(), conversation.ProcessMessageInput{
				SessionID: domain.SessionID("cli"),
				Text:      strings.Join(args, " "),
				Mode:      domain.ParsePlanMode(mode),
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(conv)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeBasic), "plan mode: basic or detailed")
	return cmd
}
