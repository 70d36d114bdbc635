package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/cli"
	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/protocol"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

// hookInput is the part of the agent's hook JSON the event command uses.
type hookInput struct {
	SessionID string `json:"session_id"`
	ToolName  string `json:"tool_name"`
}

// maxHookInput bounds how much of stdin is read.
const maxHookInput = 1 << 20

func NewEventCmd() *cobra.Command {
	var (
		eventType string
		tool      string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "event",
		Short: "Report an agent lifecycle event",
		Long: `Report an agent lifecycle event to the daemon, or apply it to the
snapshot directly when no daemon is running.

When stdin is piped, the agent's hook JSON is read from it to fill in the
tool name and session id.

Examples:
  llm-bridge event --type submit
  llm-bridge event --type tool-start --tool Bash
  echo '{"tool_name":"Read","session_id":"abc"}' | llm-bridge event --type tool-start`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := protocol.EventType(eventType)
			if !ev.Known() {
				return bridgeerrors.InvalidInput(fmt.Sprintf("unknown event type %q (want submit, tool-start, tool-end or stop)", eventType))
			}

			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			needTool := ev == protocol.EventToolStart && tool == ""
			if (needTool || sessionID == "") && !isatty.IsTerminal(os.Stdin.Fd()) {
				in := readHookInput(cmd.InOrStdin())
				if tool == "" {
					tool = in.ToolName
				}
				if sessionID == "" {
					sessionID = in.SessionID
				}
			}
			if ev == protocol.EventToolStart && tool == "" {
				tool = snapshot.UnknownTool
			}
			if ev != protocol.EventToolStart {
				tool = ""
			}

			client := newClient(cfg)
			defer client.Close()
			return client.Send(cmd.Context(), protocol.NewEvent(sessionID, ev, tool))
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "Event type: submit, tool-start, tool-end, or stop")
	cmd.Flags().StringVar(&tool, "tool", "", "Tool name for tool-start")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Agent session id")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// readHookInput decodes the hook JSON. Anything unreadable yields an empty
// input; the event is still reported.
func readHookInput(r io.Reader) hookInput {
	var in hookInput
	data, err := io.ReadAll(io.LimitReader(r, maxHookInput))
	if err != nil || len(data) == 0 {
		return in
	}
	_ = json.Unmarshal(data, &in)
	return in
}
