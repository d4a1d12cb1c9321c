package rest

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/rollcall/rollcall/internal/model"
	"github.com/rollcall/rollcall/internal/store"
)

// attendanceScan fetches the filtered attendance rows. Exact-id filters
// push down to the remote; the date range cannot (it lives on the sessions
// table) and is applied after the join.
func (s *Store) attendanceScan(ctx context.Context, f store.ReportFilter) ([]attendanceRow, error) {
	q := url.Values{}
	if f.SessionID != 0 {
		q.Set("session_id", eq(f.SessionID))
	}
	if f.StudentID != 0 {
		q.Set("student_id", eq(f.StudentID))
	}
	var rows []attendanceRow
	if err := s.c.selectAll(ctx, "attendance", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// joinReportRows performs the three-table merge the relational adapter
// gets from a single SQL join: attendance x sessions x students, date
// range applied to the session date, orphans dropped.
func joinReportRows(rows []attendanceRow, sessions map[int64]sessionRow, students map[int64]studentRow, f store.ReportFilter) []store.ReportRow {
	report := []store.ReportRow{}
	for _, row := range rows {
		sess, ok := sessions[row.SessionID]
		if !ok {
			continue
		}
		if f.StartDate != "" && sess.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && sess.Date > f.EndDate {
			continue
		}
		st, ok := students[row.StudentID]
		if !ok {
			continue
		}
		report = append(report, store.ReportRow{
			ID:          row.ID,
			Timestamp:   row.Timestamp,
			Status:      row.Status,
			StudentID:   st.ExternalID,
			StudentName: st.Name,
			SessionID:   sess.ID,
			SessionName: sess.Name,
			Date:        sess.Date,
		})
	}

	// Same ordering the relational adapter gets from
	// ORDER BY ses.date DESC, ses.name ASC, a.timestamp ASC.
	sort.SliceStable(report, func(i, j int) bool {
		a, b := report[i], report[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.SessionName != b.SessionName {
			return a.SessionName < b.SessionName
		}
		return a.Timestamp < b.Timestamp
	})
	return report
}

// AttendanceReport emulates the relational join and aggregates across
// three table scans. Output is identical to the sqlite adapter's for the
// same underlying data.
func (s *Store) AttendanceReport(ctx context.Context, f store.ReportFilter) ([]store.ReportRow, store.ReportStats, error) {
	rows, err := s.attendanceScan(ctx, f)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: %w", err)
	}
	sessions, err := s.sessionIndex(ctx)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: %w", err)
	}
	students, err := s.studentIndex(ctx)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: %w", err)
	}

	report := joinReportRows(rows, sessions, students, f)

	distinctSessions := map[int64]struct{}{}
	distinctStudents := map[string]struct{}{}
	for _, r := range report {
		distinctSessions[r.SessionID] = struct{}{}
		distinctStudents[r.StudentID] = struct{}{}
	}
	stats := store.ReportStats{
		TotalSessions: len(distinctSessions),
		TotalStudents: len(distinctStudents),
		TotalRecords:  len(report),
	}

	if stats.TotalSessions > 0 && stats.TotalStudents > 0 {
		active := 0
		for _, st := range students {
			if st.Status == model.StatusActive {
				active++
			}
		}
		stats.AttendanceRate = store.AttendanceRate(stats.TotalRecords, active, stats.TotalSessions)
	}

	return report, stats, nil
}

// DailyStats groups the joined rows by session date, ascending.
func (s *Store) DailyStats(ctx context.Context, f store.ReportFilter) ([]store.DailyStat, error) {
	rows, err := s.attendanceScan(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	sessions, err := s.sessionIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	students, err := s.studentIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	counts := map[string]int{}
	for _, r := range joinReportRows(rows, sessions, students, f) {
		counts[r.Date]++
	}

	stats := []store.DailyStat{}
	for date, count := range counts {
		stats = append(stats, store.DailyStat{Date: date, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats, nil
}
