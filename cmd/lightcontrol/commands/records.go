package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spatialhue/lightcontrol/internal/anchors"
	"github.com/spatialhue/lightcontrol/internal/geo"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/util"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

var (
	recordsJSON bool
	placePos    string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List persisted light control records",
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

		records := store.Records()
		if recordsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		printRecords(cmd.OutOrStdout(), records)
		return nil
	},
}

var placeCmd = &cobra.Command{
	Use:   "place <light|group> <name>",
	Short: "Persist a new record bound to a light or group",
	Long: `Persist a new record bound to a light or group.

The record gets a fresh anchor id and stays orphaned until the tracking
provider registers an anchor with that id.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := core.ParseControlKind(args[0])
		if err != nil {
			return err
		}
		if kind == core.KindNone {
			return fmt.Errorf("a record needs a light or group, got %q", args[0])
		}
		pos, err := geo.Vec3FromString(placePos)
		if err != nil {
			return err
		}

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

		target := util.TrimQuotes(args[1])
		rec, err := store.Place(cmd.Context(), mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()), kind,
			&core.LightControlRecord{Kind: kind, TargetName: target})
		if err != nil {
			return err
		}
		a.log.Info("Record placed", "anchorId", rec.AnchorID, "kind", kind.String(), "target", target)
		fmt.Fprintln(cmd.OutOrStdout(), rec.AnchorID)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <anchor-id>",
	Short: "Delete a persisted record",
	Long: `Delete a persisted record.

The anchor id may be shortened to any unique prefix.`,
	Args: cobra.ExactArgs(1),
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

		id, err := matchRecord(store.Records(), args[0])
		if err != nil {
			return err
		}
		if err := store.Remove(cmd.Context(), id); err != nil {
			return err
		}
		a.log.Info("Record removed", "anchorId", id)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
		return nil
	},
}

func init() {
	recordsCmd.Flags().BoolVar(&recordsJSON, "json", false, "print records as JSON")
	placeCmd.Flags().StringVar(&placePos, "pos", "0,0,0", "anchor position x,y,z in metres")

	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(removeCmd)
}

// matchRecord resolves a full anchor id or a unique prefix of one.
func matchRecord(records []core.LightControlRecord, ref string) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return uuid.Nil, errors.New("empty anchor id")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	var found []uuid.UUID
	for _, r := range records {
		if strings.HasPrefix(r.AnchorID.String(), ref) {
			found = append(found, r.AnchorID)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", anchors.ErrUnknownAnchor, ref)
	case 1:
		return found[0], nil
	}
	return uuid.Nil, fmt.Errorf("anchor id %q is ambiguous (%d records)", ref, len(found))
}

func printRecords(out io.Writer, records []core.LightControlRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ANCHOR\tTARGET\tPOWER\tCOLOR")
	for _, r := range records {
		id := r.AnchorID.String()
		if !verbose {
			id = util.ShortID(id)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, util.FormatTarget(r.Kind, r.TargetName), util.FormatPower(r.IsOn), util.FormatColor(r.LastColor))
	}
	w.Flush()
}
