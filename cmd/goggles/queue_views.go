package main

import (
	"time"

	"goggles/internal/nested"
	"goggles/internal/queue"
)

type scriptView struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

type rowView struct {
	ID           int64       `json:"id"`
	TargetEntity string      `json:"target_entity"`
	Done         bool        `json:"done"`
	ProcessRuns  int         `json:"process_runs"`
	ParentRowID  *int64      `json:"parent_row_id,omitempty"`
	BatchSQL     bool        `json:"batch_sql"`
	Request      nested.Map  `json:"request"`
	SolvedData   nested.Map  `json:"solved_data"`
	Script       *scriptView `json:"script,omitempty"`
	Children     []int64     `json:"children,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func newRowView(row *queue.Row) rowView {
	view := rowView{
		ID:           row.ID,
		TargetEntity: row.TargetEntity,
		Done:         row.Done,
		ProcessRuns:  row.ProcessRuns,
		ParentRowID:  row.ParentRowID,
		BatchSQL:     row.BatchSQL,
		Request:      row.Request,
		SolvedData:   row.SolvedData,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if view.Request == nil {
		view.Request = nested.Map{}
	}
	if view.SolvedData == nil {
		view.SolvedData = nested.Map{}
	}
	return view
}

func rowViews(rows []*queue.Row) []rowView {
	views := make([]rowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newRowView(row))
	}
	return views
}
