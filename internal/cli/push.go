package cli

import (
	"github.com/spf13/cobra"

	"github.com/tracerat/rescuectl/internal/rescue"
)

var pushFull bool

var pushCmd = &cobra.Command{
	Use:   "push <case-file>",
	Short: "Push a rescue case's state to the API",
	Long:  "Reads a case from a JSON file ({\"id\": ..., \"attributes\": {...}}), connects, and pushes its state. By default only changed attributes are sent; --full sends the whole case.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func init() {
	pushCmd.Flags().BoolVar(&pushFull, "full", false, "Send the full case state instead of changed attributes only")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	r, err := rescue.Load(args[0])
	if err != nil {
		return err
	}

	h, err := newHandler(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := h.Connect(ctx); err != nil {
		return err
	}
	defer h.Close()

	reply, err := h.UpdateRescue(ctx, r, pushFull)
	if err != nil {
		return err
	}
	r.MarkSynced()

	return outputReply(reply)
}
