package services

import (
	"context"
	"fmt"

	"recoverydesk/internal/models"

	"gorm.io/gorm"
)

type FileStats struct {
	TotalFiles         int64   `json:"total_files"`
	TotalDebt          float64 `json:"total_debt"`
	NewFiles           int64   `json:"new_files"`
	InProgressFiles    int64   `json:"in_progress_files"`
	PaidFiles          int64   `json:"paid_files"`
	PartiallyPaidFiles int64   `json:"partially_paid_files"`
	ClosedFiles        int64   `json:"closed_files"`
}

type ClientCounts struct {
	TotalClients  int64 `json:"total_clients"`
	ActiveClients int64 `json:"active_clients"`
}

type TaskStats struct {
	TotalTasks      int64 `json:"total_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
}

type FinancialStats struct {
	TotalRecovered     float64 `json:"total_recovered"`
	TotalExpenses      float64 `json:"total_expenses"`
	TotalNetCommission float64 `json:"total_net_commission"`
}

type RecentFile struct {
	models.File
	ClientName string `json:"client_name"`
}

type Dashboard struct {
	Files         FileStats         `json:"files"`
	Clients       ClientCounts      `json:"clients"`
	Tasks         TaskStats         `json:"tasks"`
	Financial     FinancialStats    `json:"financial"`
	RecentFiles   []RecentFile      `json:"recent_files"`
	UpcomingTasks []models.TaskView `json:"upcoming_tasks"`
}

type ClientStatsRow struct {
	ClientID        uint    `json:"client_id"`
	ClientName      string  `json:"client_name"`
	FileCount       int64   `json:"file_count"`
	TotalDebt       float64 `json:"total_debt"`
	RecoveredAmount float64 `json:"recovered_amount"`
	TotalExpenses   float64 `json:"total_expenses"`
	ClientRights    float64 `json:"client_rights"`
	RecoveryRate    float64 `json:"recovery_rate"`
	NetCommission   float64 `json:"net_commission"`
	DueBalance      float64 `json:"due_balance"`
}

type MonthlyStatsRow struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	FilesCount      int64   `json:"files_count"`
	TotalDebt       float64 `json:"total_debt"`
	RecoveredAmount float64 `json:"recovered_amount"`
	Expenses        float64 `json:"expenses"`
	NetCommission   float64 `json:"net_commission"`
}

// ClientSummary is what a client sees about its own portfolio. Closed files
// count as recovered.
type ClientSummary struct {
	TotalFiles      int64   `json:"total_files"`
	TotalDebt       float64 `json:"total_debt"`
	RecoveredAmount float64 `json:"recovered_amount"`
	RecoveryRate    float64 `json:"recovery_rate"`
}

// StatsService computes the dashboard aggregates in SQL.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Dashboard(ctx context.Context, today string) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard

	if err := db.Raw(`
		SELECT COUNT(*) AS total_files,
		       COALESCE(SUM(total_amount), 0) AS total_debt,
		       COUNT(*) FILTER (WHERE status = 'new') AS new_files,
		       COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress_files,
		       COUNT(*) FILTER (WHERE status = 'paid') AS paid_files,
		       COUNT(*) FILTER (WHERE status = 'partially_paid') AS partially_paid_files,
		       COUNT(*) FILTER (WHERE status = 'closed') AS closed_files
		FROM files`).Scan(&d.Files).Error; err != nil {
		return nil, fmt.Errorf("file stats: %w", err)
	}

	if err := db.Raw(`
		SELECT (SELECT COUNT(*) FROM clients) AS total_clients,
		       (SELECT COUNT(DISTINCT client_id) FROM files) AS active_clients`).Scan(&d.Clients).Error; err != nil {
		return nil, fmt.Errorf("client stats: %w", err)
	}

	if err := db.Raw(`
		SELECT COUNT(*) AS total_tasks,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending_tasks,
		       COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress_tasks,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed_tasks
		FROM tasks`).Scan(&d.Tasks).Error; err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	if err := db.Raw(`
		SELECT COALESCE(SUM(recovered_amount), 0) AS total_recovered,
		       COALESCE(SUM(expenses), 0) AS total_expenses,
		       COALESCE(SUM(net_commission), 0) AS total_net_commission
		FROM paid_files`).Scan(&d.Financial).Error; err != nil {
		return nil, fmt.Errorf("financial stats: %w", err)
	}

	if err := db.Table("files f").
		Select("f.*, COALESCE(c.name, '') AS client_name").
		Joins("LEFT JOIN clients c ON f.client_id = c.id").
		Order("f.created_at DESC").
		Limit(5).
		Scan(&d.RecentFiles).Error; err != nil {
		return nil, fmt.Errorf("recent files: %w", err)
	}

	if err := db.Table("tasks t").
		Select("t.*, COALESCE(u.name, '') AS assigned_to_name, COALESCE(f.debtor, '') AS file_debtor").
		Joins("LEFT JOIN users u ON t.assigned_to = u.id").
		Joins("LEFT JOIN files f ON t.file_id = f.id").
		Where("t.status IN ? AND t.due_date >= CAST(? AS date)", []string{"pending", "in_progress"}, today).
		Order("t.due_date ASC").
		Limit(5).
		Scan(&d.UpcomingTasks).Error; err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}

	return &d, nil
}

func (s *StatsService) Clients(ctx context.Context) ([]ClientStatsRow, error) {
	var rows []ClientStatsRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS client_id,
		       c.name AS client_name,
		       COUNT(f.id) AS file_count,
		       COALESCE(SUM(f.total_amount), 0) AS total_debt,
		       COALESCE(SUM(pf.recovered_amount), 0) AS recovered_amount,
		       COALESCE(SUM(pf.expenses), 0) AS total_expenses,
		       COALESCE(SUM(pf.client_rights), 0) AS client_rights,
		       CASE WHEN SUM(f.total_amount) > 0
		            THEN COALESCE(SUM(pf.recovered_amount), 0) / SUM(f.total_amount) * 100
		            ELSE 0 END AS recovery_rate,
		       COALESCE(SUM(pf.net_commission), 0) AS net_commission,
		       COALESCE(SUM(pf.due_balance), 0) AS due_balance
		FROM clients c
		LEFT JOIN files f ON c.id = f.client_id
		LEFT JOIN paid_files pf ON f.id = pf.file_id
		GROUP BY c.id, c.name
		ORDER BY total_debt DESC`).Scan(&rows).Error
	return rows, err
}

func (s *StatsService) Monthly(ctx context.Context, year int) ([]MonthlyStatsRow, error) {
	var rows []MonthlyStatsRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT EXTRACT(YEAR FROM f.created_at)::int AS year,
		       EXTRACT(MONTH FROM f.created_at)::int AS month,
		       COUNT(f.id) AS files_count,
		       COALESCE(SUM(f.total_amount), 0) AS total_debt,
		       COALESCE(SUM(pf.recovered_amount), 0) AS recovered_amount,
		       COALESCE(SUM(pf.expenses), 0) AS expenses,
		       COALESCE(SUM(pf.net_commission), 0) AS net_commission
		FROM files f
		LEFT JOIN paid_files pf ON f.id = pf.file_id
		WHERE EXTRACT(YEAR FROM f.created_at) = ?
		GROUP BY 1, 2
		ORDER BY 1, 2`, year).Scan(&rows).Error
	return rows, err
}

func (s *StatsService) Client(ctx context.Context, clientID uint) (*ClientSummary, error) {
	var out ClientSummary
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_files,
		       COALESCE(SUM(total_amount), 0) AS total_debt,
		       COALESCE(SUM(total_amount) FILTER (WHERE status = 'closed'), 0) AS recovered_amount,
		       COALESCE(AVG(CASE WHEN status = 'closed' THEN 1 ELSE 0 END) * 100, 0) AS recovery_rate
		FROM files
		WHERE client_id = ?`, clientID).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
