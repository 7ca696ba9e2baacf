package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	rpcURL     string
	rpcTimeout time.Duration
)

// rpcCmd sends one JSON-RPC request to a running server.
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params]",
	Short: "Call a method on a running server",
	Long: `Send a JSON-RPC request to a running listingd and print the result.
params is a JSON object. The server address comes from the configuration
unless --url is given.

Examples:
    listingd rpc server_info
    listingd rpc quote '{"listing":"<address>","amount":5}'
    listingd rpc submit "{\"envelope\": $(listingd sign -k <key> -i create.json)}"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)

	rpcCmd.Flags().StringVar(&rpcURL, "url", "", "server URL (default from server.bind and server.port)")
	rpcCmd.Flags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "request timeout")
}

func runRPC(cmd *cobra.Command, args []string) error {
	url := rpcURL
	if url == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url = "http://" + cfg.Server.Address() + "/"
	}

	params := json.RawMessage("{}")
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params are not valid JSON")
		}
		params = json.RawMessage(args[1])
	}
	body, err := json.Marshal(map[string]interface{}{
		"method": args[0],
		"params": []json.RawMessage{params},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := (&http.Client{Timeout: rpcTimeout}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var out struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Result == nil {
		return fmt.Errorf("unexpected response (%s): %s", resp.Status, raw)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out.Result, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())

	var status struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(out.Result, &status) == nil && status.Status == "error" {
		return fmt.Errorf("%s failed: %s", args[0], status.Error)
	}
	return nil
}
