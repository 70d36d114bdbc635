package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grovetools/llm-bridge/cli"
	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/protocol"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

func NewStatuslineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statusline",
		Short: "Agent statusLine hook: print a status line and forward telemetry",
		Long: `Reads the statusLine JSON the agent pipes on stdin, prints
"<model> | $<cost>" for the agent's own status line and forwards the
telemetry to the daemon (or applies it directly when no daemon runs).

This command is not meant to be run by hand; install it with
'llm-bridge hooks install'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if term.IsTerminal(int(os.Stdin.Fd())) {
				return bridgeerrors.InvalidInput("statusline expects JSON piped from the agent's statusLine hook; run 'llm-bridge hooks install' to set it up")
			}

			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxHookInput))
			if err != nil {
				return bridgeerrors.Wrap(err, bridgeerrors.ErrCodeInvalidInput, "failed to read statusLine input")
			}

			payload, perr := snapshot.ParseStatus(string(data))
			fmt.Fprintln(cmd.OutOrStdout(), statusLine(payload))
			if perr != nil {
				cli.GetLogger("statusline").WithError(perr).Debug("Ignoring malformed statusLine input")
				return nil
			}

			sessionID := ""
			if payload.SessionID != nil {
				sessionID = *payload.SessionID
			}
			client := newClient(cfg)
			defer client.Close()
			return client.Send(cmd.Context(), protocol.NewStatus(sessionID, string(data)))
		},
	}
}

// statusLine renders the agent-side status line.
func statusLine(p snapshot.StatusPayload) string {
	model := p.ModelName()
	if model == "" {
		model = "Claude"
	}
	return fmt.Sprintf("%s | $%.2f", model, p.TotalCost())
}
