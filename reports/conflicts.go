package reports

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/utils"
)

const conflictSummaryPageSize = 10000

// runConflictSummary renders every conflict for one batch, or for the date
// range when no batch id is given, with a reason breakdown at the bottom.
func (r *Runner) runConflictSummary(payload jobs.ReportPayload) (string, string, error) {
	var (
		conflicts []models.ImportConflict
		scope     string
		err       error
	)

	if payload.BatchID != nil {
		conflicts, err = r.importRepo.GetConflictsForBatch(*payload.BatchID)
		scope = fmt.Sprintf("Batch %s", payload.BatchID.String())
	} else {
		from, to, rangeErr := parseDateRange(payload)
		if rangeErr != nil {
			return "", "", rangeErr
		}
		filters := map[string]string{
			"start_date": from.Format("2006-01-02"),
			"end_date":   to.Format("2006-01-02"),
		}
		conflicts, _, err = r.importRepo.GetFilteredConflicts(conflictSummaryPageSize, 0, filters)
		scope = fmt.Sprintf("%s to %s", filters["start_date"], filters["end_date"])
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load conflicts for summary: %w", err)
	}

	headers := []string{
		"Batch ID", "Row", "Reason", "Detail", "Resolution", "Resolved By", "Suggested Fix", "Row Data",
	}

	rows := make([][]interface{}, 0, len(conflicts))
	byReason := map[models.ConflictReason]int{}

	for _, c := range conflicts {
		byReason[c.Reason]++

		resolvedBy := ""
		if c.ResolvedBy != nil {
			resolvedBy = *c.ResolvedBy
		}
		suggested := ""
		if c.SuggestedFix != nil {
			suggested = *c.SuggestedFix
		}

		rows = append(rows, []interface{}{
			c.BatchID.String(),
			c.RowIndex,
			string(c.Reason),
			c.Detail,
			string(c.Resolution),
			resolvedBy,
			suggested,
			flattenRowData(c.RowData),
		})
	}

	rows = append(rows, []interface{}{})
	reasons := make([]string, 0, len(byReason))
	for reason := range byReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []interface{}{"", "", reason, byReason[models.ConflictReason(reason)]})
	}

	_, diskPath, err := utils.GenerateExcel("conflict_summary", headers, rows)
	if err != nil {
		return "", "", fmt.Errorf("failed to render conflict summary: %w", err)
	}
	return diskPath, fmt.Sprintf("Import Conflict Summary (%s)", scope), nil
}

// flattenRowData turns the stored row snapshot into "label: value" pairs so
// the sheet stays readable without a JSON viewer.
func flattenRowData(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, data[k]))
	}
	return strings.Join(parts, "; ")
}
