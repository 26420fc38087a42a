package engine

import (
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/report"
)

// GroupSummary describes one group of a report sheet.
type GroupSummary struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Subtotal report.Subtotal `json:"subtotal"`
}

// SideSummary describes one report sheet.
type SideSummary struct {
	Direction domain.Direction `json:"direction"`
	Groups    []GroupSummary   `json:"groups"`
}

// Summary is a compact, JSON friendly view of a result.
type Summary struct {
	Sides        []SideSummary `json:"sides"`
	OffsetRows   int           `json:"offset_rows"`
	PendingRows  int           `json:"pending_rows"`
	ExactPairs   int           `json:"exact_pairs"`
	GreedyGroups int           `json:"greedy_groups"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// Summary lists the groups of every sheet in layout order.
func (r *Result) Summary() Summary {
	s := Summary{
		OffsetRows:   len(r.Offset.Offset),
		PendingRows:  len(r.Offset.Pending),
		ExactPairs:   len(r.Offset.ExactPairs),
		GreedyGroups: len(r.Offset.Resolutions),
		Warnings:     r.Warnings,
	}
	for _, side := range r.Sides {
		ss := SideSummary{Direction: side.Direction}
		for _, name := range side.Layout {
			g, ok := side.Groups[name]
			if !ok {
				continue
			}
			ss.Groups = append(ss.Groups, GroupSummary{
				Code:     g.Code,
				Name:     g.Name,
				Rows:     len(g.Members()),
				Subtotal: g.Subtotal,
			})
		}
		s.Sides = append(s.Sides, ss)
	}
	return s
}
