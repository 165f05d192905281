package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/internal/hue"
)

var (
	lightsState    bool
	registerBridge string
	registerSave   bool
)

var lightsCmd = &cobra.Command{
	Use:   "lights",
	Short: "List the lights and groups known to the bridge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		client := a.hueClient()
		inv, err := client.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		a.log.Debug("Bridge inventory", "lights", len(inv.Lights), "groups", len(inv.Groups))

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if lightsState {
			fmt.Fprintln(w, "LIGHT\tID\tON\tBRI\tHUE\tSAT")
		} else {
			fmt.Fprintln(w, "LIGHT\tID")
		}
		for _, l := range sortedLights(inv) {
			if !lightsState {
				fmt.Fprintf(w, "%s\t%s\n", l.Name, l.ID)
				continue
			}
			st, err := client.LightStatus(cmd.Context(), l.Name)
			if err != nil {
				fmt.Fprintf(w, "%s\t%s\t%v\n", l.Name, l.ID, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%d\n", l.Name, l.ID, st.On, st.Bri, st.Hue, st.Sat)
		}
		w.Flush()

		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if lightsState {
			fmt.Fprintln(w, "GROUP\tID\tTYPE\tLIGHTS\tON")
		} else {
			fmt.Fprintln(w, "GROUP\tID\tTYPE\tLIGHTS")
		}
		for _, g := range sortedGroups(inv) {
			members := strings.Join(g.Lights, ",")
			if !lightsState {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.ID, g.Type, members)
				continue
			}
			st, err := client.GroupStatus(cmd.Context(), g.Name)
			if err != nil {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", g.Name, g.ID, g.Type, members, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", g.Name, g.ID, g.Type, members, st.On)
		}
		return w.Flush()
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a bridge user (press the link button first)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		cfg := config.GetHueConfig()
		if registerBridge != "" {
			cfg.BridgeAddress = registerBridge
		}
		if cfg.BridgeAddress == "" {
			return fmt.Errorf("no bridge address: set hue.bridgeAddress or pass --bridge")
		}

		username, err := hue.New(cfg, nil).Register(cmd.Context())
		if err != nil {
			return err
		}
		a.log.Info("Registered with bridge", "bridge", cfg.BridgeAddress)
		fmt.Fprintln(cmd.OutOrStdout(), username)

		if !registerSave {
			return nil
		}
		viper.Set("hue.bridgeAddress", cfg.BridgeAddress)
		viper.Set("hue.username", username)
		path := filepath.Join(configDir, config.FileName)
		if err := viper.WriteConfigAs(path); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved to %s\n", path)
		return nil
	},
}

func init() {
	lightsCmd.Flags().BoolVar(&lightsState, "state", false, "query the current state of every light and group")
	registerCmd.Flags().StringVar(&registerBridge, "bridge", "", "bridge address (overrides hue.bridgeAddress)")
	registerCmd.Flags().BoolVar(&registerSave, "save", false, "write the bridge address and username to the config file")

	rootCmd.AddCommand(lightsCmd)
	rootCmd.AddCommand(registerCmd)
}

func sortedLights(inv hue.Inventory) []hue.Light {
	out := make([]hue.Light, 0, len(inv.Lights))
	for _, l := range inv.Lights {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedGroups(inv hue.Inventory) []hue.Group {
	out := make([]hue.Group, 0, len(inv.Groups))
	for _, g := range inv.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
