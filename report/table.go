/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"strings"
	"time"

	"chainguard.dev/sweagent/executor"
	"chainguard.dev/sweagent/orchestrator"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// attemptTable renders the per-attempt breakdown as a markdown table.
func attemptTable(attempts []orchestrator.Attempt) string {
	var buf strings.Builder

	table := tablewriter.NewTable(&buf,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader([]string{"Provider", "Model", "Outcome", "Error", "Duration"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)

	for _, a := range attempts {
		errText := string(a.ErrorKind)
		if a.ErrorKind == executor.ErrKindNone {
			errText = "-"
		}
		table.Append([]string{
			string(a.Provider),
			a.Model,
			string(a.Outcome),
			errText,
			a.Duration.Round(100 * time.Millisecond).String(),
		})
	}
	table.Render()

	return buf.String()
}
