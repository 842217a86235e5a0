package swap

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
)

type balanceRow struct {
	Token  string
	Before string
	After  string
}

func printField(out io.Writer, label string, value any) {
	fmt.Fprintf(out, "%s %s\n", blue(label), green(fmt.Sprint(value)))
}

func printBalanceTable(out io.Writer, rows []balanceRow) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Color.Header = text.Colors{text.FgCyan}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, Colors: text.Colors{text.FgMagenta}},
		{Number: 3, Align: text.AlignRight, Colors: text.Colors{text.FgMagenta}},
	})

	t.AppendHeader(table.Row{"Token", "Before Swap", "After Swap"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Token, r.Before, r.After})
	}
	t.Render()
}
