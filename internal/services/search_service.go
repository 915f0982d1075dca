package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const searchLimit = 20

type ClientHit struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	CIN   string  `json:"cin,omitempty"`
	Login string  `json:"login"`
	Score float64 `json:"score"`
}

type FileHit struct {
	ID          uint    `json:"id"`
	Debtor      string  `json:"debtor"`
	ClientName  string  `json:"client_name"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
	Score       float64 `json:"score"`
}

type CaseHit struct {
	ID         uint    `json:"id"`
	Title      string  `json:"title"`
	CaseNumber string  `json:"case_number,omitempty"`
	ClientName string  `json:"client_name"`
	Score      float64 `json:"score"`
}

type SearchResults struct {
	Clients []ClientHit `json:"clients"`
	Files   []FileHit   `json:"files"`
	Cases   []CaseHit   `json:"cases"`
}

// SearchService does ranked partial matching across clients, files and cases.
// A failing kind is logged and returned empty.
type SearchService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSearchService(db *gorm.DB, log *zap.Logger) *SearchService {
	return &SearchService{db: db, log: log}
}

func (s *SearchService) Search(ctx context.Context, term string) *SearchResults {
	results := &SearchResults{Clients: []ClientHit{}, Files: []FileHit{}, Cases: []CaseHit{}}

	pattern := likePattern(term)
	if pattern == "" {
		return results
	}
	prefix := strings.TrimSuffix(pattern, "%")[1:] + "%"
	db := s.db.WithContext(ctx)

	if err := db.Raw(`
		SELECT id, name, COALESCE(cin, '') AS cin, login,
		       CASE WHEN LOWER(name) LIKE ? THEN 3
		            WHEN LOWER(name) LIKE ? THEN 2
		            ELSE 1 END AS score
		FROM clients
		WHERE LOWER(name) LIKE ? OR LOWER(cin) LIKE ? OR LOWER(login) LIKE ?
		ORDER BY score DESC, name
		LIMIT ?`, prefix, pattern, pattern, pattern, pattern, searchLimit).Scan(&results.Clients).Error; err != nil {
		s.log.Warn("client search failed", zap.Error(err))
	}

	if err := db.Raw(`
		SELECT f.id, f.debtor, COALESCE(c.name, '') AS client_name, f.status, f.total_amount,
		       CASE WHEN LOWER(f.debtor) LIKE ? THEN 3 ELSE 2 END AS score
		FROM files f
		LEFT JOIN clients c ON f.client_id = c.id
		WHERE LOWER(f.debtor) LIKE ?
		ORDER BY score DESC, f.created_at DESC
		LIMIT ?`, prefix, pattern, searchLimit).Scan(&results.Files).Error; err != nil {
		s.log.Warn("file search failed", zap.Error(err))
	}

	if err := db.Raw(`
		SELECT cs.id, cs.title, COALESCE(cs.case_number, '') AS case_number, COALESCE(c.name, '') AS client_name,
		       CASE WHEN LOWER(cs.case_number) LIKE ? THEN 3
		            WHEN LOWER(cs.title) LIKE ? THEN 2
		            ELSE 1 END AS score
		FROM cases cs
		LEFT JOIN clients c ON cs.client_id = c.id
		WHERE LOWER(cs.title) LIKE ? OR LOWER(cs.case_number) LIKE ?
		ORDER BY score DESC, cs.created_at DESC
		LIMIT ?`, prefix, prefix, pattern, pattern, searchLimit).Scan(&results.Cases).Error; err != nil {
		s.log.Warn("case search failed", zap.Error(err))
	}

	return results
}

// likePattern lowercases the term, escapes LIKE wildcards and wraps it in %.
// It returns "" for a blank term.
func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ""
	}
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
