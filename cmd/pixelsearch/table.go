package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pixelsearch/internal/models"
)

func renderResult(r models.Result, elapsed time.Duration) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"z", "y", "x", "score", "valid", "finite", "candidates", "time"})
	tw.AppendRow(table.Row{
		r.Z, r.Y, r.X,
		fmt.Sprintf("%.6f", r.Score),
		r.Valid,
		r.Finite(),
		r.Candidates,
		elapsed.Round(time.Millisecond).String(),
	})

	configs := make([]table.ColumnConfig, 0, 8)
	for i := 1; i <= 8; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
