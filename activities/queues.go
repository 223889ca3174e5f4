package activities

// GetExportActivities returns the activities a worker on the export queue registers.
func GetExportActivities(a *ExportActivities) []any {
	return []any{
		a.ExportTimeline,
		a.NotifyExportFinished,
	}
}
