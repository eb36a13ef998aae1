package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	callParams string
	callMeta   string
)

var callCmd = &cobra.Command{
	Use:   "call <endpoint> <action>",
	Short: "Issue a raw API call",
	Long:  "Sends a single request for the given endpoint and action and prints the correlated reply. Params and meta are JSON objects.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCall,
}

func init() {
	callCmd.Flags().StringVar(&callParams, "params", "", "Request parameters as a JSON object")
	callCmd.Flags().StringVar(&callMeta, "meta", "", "Caller metadata as a JSON object")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	params, err := parseObject("params", callParams)
	if err != nil {
		return err
	}
	meta, err := parseObject("meta", callMeta)
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

	reply, err := h.Call(ctx, args[0], args[1], params, meta)
	if err != nil {
		return err
	}

	return outputReply(reply)
}

// parseObject decodes a --params/--meta flag value into a map.
func parseObject(name, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return obj, nil
}
