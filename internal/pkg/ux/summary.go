package ux

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
)

type SummaryT struct {
	Policy cascade.Policy
	Pid    int
	Stats  cascade.Stats
	Guards []cascade.GuardStats
}

func PrintSummary(w io.Writer, s SummaryT) {
	guards := table.NewWriter()
	guards.SetOutputMirror(w)
	guards.SetTitle("%s policy, pid %d", s.Policy, s.Pid)
	guards.AppendHeader(table.Row{"Handler", "Limit", "Counter", "Entered", "Exited"})
	for _, g := range s.Guards {
		guards.AppendRow(table.Row{g.Name, g.Limit, g.Count, g.Entered, g.Exited})
	}
	guards.SetStyle(table.StyleRounded)
	guards.Style().Title.Align = text.AlignCenter
	guards.Render()

	stats := table.NewWriter()
	stats.SetOutputMirror(w)
	stats.AppendHeader(table.Row{"Raised", "Delivered", "Coalesced", "Ignored", "Dropped", "Raise errors", "Max depth"})
	stats.AppendRow(table.Row{
		s.Stats.Raised,
		s.Stats.Delivered,
		s.Stats.Coalesced,
		s.Stats.Ignored,
		s.Stats.Dropped,
		s.Stats.RaiseErrors,
		s.Stats.MaxDepth,
	})
	stats.SetStyle(table.StyleRounded)
	stats.Render()
}
