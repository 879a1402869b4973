package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"photoflow/internal/catalog"
)

func newTableWriter(header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, column := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func renderSessionTable(sessions []*catalog.ImportSession) string {
	tw := newTableWriter(table.Row{"ID", "Label", "Status", "Enqueued", "Imported", "Dup", "Failed", "Updated"}, 1, 4, 5, 6, 7)
	for _, sess := range sessions {
		label := sess.Label
		if sess.RemoteAccount != "" {
			label = fmt.Sprintf("%s (%s)", label, sess.RemoteAccount)
		}
		status := string(sess.Status)
		if sess.CancelRequested && !sess.Status.Terminal() {
			status += " (canceling)"
		}
		tw.AppendRow(table.Row{
			sess.ID,
			label,
			status,
			sess.EnqueuedCount,
			sess.ImportedCount,
			sess.DuplicateCount,
			sess.FailedCount,
			humanize.Time(sess.UpdatedAt),
		})
	}
	return tw.Render()
}

func renderItemTable(items []*catalog.SelectionItem) string {
	tw := newTableWriter(table.Row{"ID", "Locator", "Status", "Attempts", "Entry", "Error"}, 1, 4, 5)
	for _, item := range items {
		entry := ""
		if item.EntryID != nil {
			entry = fmt.Sprintf("%d", *item.EntryID)
		}
		tw.AppendRow(table.Row{
			item.ID,
			item.SourceLocator,
			string(item.Status),
			item.Attempts,
			entry,
			text.Trim(item.ErrorMessage, 60),
		})
	}
	return tw.Render()
}

func renderRetryTable(records []*catalog.RetryRecord, entries map[int64]*catalog.CatalogEntry) string {
	tw := newTableWriter(table.Row{"Entry", "Public ID", "Size", "Attempts", "Next Attempt", "Blocked"}, 1, 3, 4)
	for _, record := range records {
		publicID := ""
		size := ""
		if entry := entries[record.EntryID]; entry != nil {
			publicID = entry.PublicID
			size = humanize.Bytes(uint64(entry.ByteSize))
		}
		next := ""
		if record.ScheduledAt != nil {
			next = humanize.Time(*record.ScheduledAt)
		}
		tw.AppendRow(table.Row{
			record.EntryID,
			publicID,
			size,
			record.Attempts,
			next,
			record.BlockReason,
		})
	}
	return tw.Render()
}
