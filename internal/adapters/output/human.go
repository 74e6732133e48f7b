package output

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/stagelight/lumacast/pkg/show"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct{}

// NodesOutput carries a presence listing.
type NodesOutput struct {
	Nodes []show.Presence
}

// Print renders human output.
func (HumanPrinter) Print(v any) error {
	switch data := v.(type) {
	case show.StatusSnapshot:
		return printStatus(data)
	case NodesOutput:
		return printNodes(data)
	default:
		_, err := fmt.Fprintln(os.Stdout, "ok")
		return err
	}
}

func printStatus(state show.StatusSnapshot) error {
	rows := pterm.TableData{
		{"STATUS", statusLabel(state.Status)},
		{"SOURCE", state.Source},
		{"FOLDER/FILE", fmt.Sprintf("%d/%d", state.FolderIndex, state.FileIndex)},
		{"PLAYMODE", state.Playmode},
		{"VOLUME", fmt.Sprintf("%d", state.Volume)},
		{"BRIGHTNESS", fmt.Sprintf("%d", state.Brightness)},
		{"CONTRAST", fmt.Sprintf("%+.1f%%", state.Contrast)},
		{"SATURATION", fmt.Sprintf("%+.1f%%", state.Saturation)},
		{"GAMMA", fmt.Sprintf("%+.1f%%", state.Gamma)},
		{"SPEED", fmt.Sprintf("%.2fx", state.Speed)},
		{"ROTATION", fmt.Sprintf("%d°", state.Rotation)},
		{"ZOOM", fmt.Sprintf("%+.2f", state.Zoom)},
		{"PAN", fmt.Sprintf("%+.2f / %+.2f", state.PanX, state.PanY)},
		{"FRAMES", fmt.Sprintf("%d", state.Frames)},
	}
	if state.LastError != "" {
		rows = append(rows, []string{"LAST ERROR", pterm.Red(state.LastError)})
	}
	if state.TS > 0 {
		rows = append(rows, []string{"UPDATED", time.Unix(state.TS, 0).Format(time.RFC3339)})
	}
	return pterm.DefaultTable.WithData(rows).Render()
}

func printNodes(result NodesOutput) error {
	rows := pterm.TableData{{"NAME", "KIND", "NODE_ID"}}
	for _, node := range result.Nodes {
		rows = append(rows, []string{node.Name, node.Kind, node.NodeID})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func statusLabel(status string) string {
	switch status {
	case "playing":
		return pterm.Green(status)
	case "looping":
		return pterm.Cyan(status)
	case "paused":
		return pterm.Yellow(status)
	default:
		return pterm.Gray(status)
	}
}
