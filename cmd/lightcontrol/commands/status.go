package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/internal/monitor"
	"github.com/spatialhue/lightcontrol/internal/scene"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted records and bridge reachability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		backend, err := a.openBackend()
		if err != nil {
			return err
		}
		store, err := a.store(scene.New(), backend, offlineTracker{}, nil, nil)
		if err != nil {
			return err
		}

		mc := config.GetMonitorConfig()
		svc := monitor.NewService(monitor.Dependencies{
			Anchors:    store,
			Session:    a.sess,
			Logger:     a.log,
			StatusFile: mc.StatusFile,
			Interval:   mc.Interval,
		})
		st, err := svc.Snapshot()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		hc := config.GetHueConfig()
		bridge := "not configured"
		if hc.BridgeAddress != "" {
			inv, err := a.hueClient().Refresh(cmd.Context())
			if err != nil {
				bridge = fmt.Sprintf("%s (unreachable: %v)", hc.BridgeAddress, err)
			} else {
				bridge = fmt.Sprintf("%s (%d lights, %d groups)", hc.BridgeAddress, len(inv.Lights), len(inv.Groups))
			}
		}

		fmt.Fprintf(out, "Bridge:   %s\n", bridge)
		fmt.Fprintf(out, "Storage:  %s\n", config.GetStorageConfig().Type)
		fmt.Fprintf(out, "Records:  %d (%d without a live anchor)\n", len(st.Records), st.Orphans)
		fmt.Fprintln(out)
		printRecords(out, store.Records())
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}
