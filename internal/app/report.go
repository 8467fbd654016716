package app

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/specialistvlad/assetgrid/internal/resource"
)

// PrintResults writes load results as a table.
func PrintResults(w io.Writer, results []Result) {
	table := newTable(w, "Path", "Type", "Status", "Deps", "Error")
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		table.Append([]string{r.Path, r.Type, r.Status, fmt.Sprint(r.Dependencies), errText})
	}
	table.Render()
}

// PrintSnapshot writes the manager's resources as a table.
func PrintSnapshot(w io.Writer, infos []resource.Info) {
	table := newTable(w, "Type", "Path", "State", "Refs", "Load Requests")
	for _, info := range infos {
		table.Append([]string{
			info.Type,
			info.Path,
			info.State.String(),
			fmt.Sprint(info.RefCount),
			fmt.Sprint(info.LoadRequests),
		})
	}
	table.Render()
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
