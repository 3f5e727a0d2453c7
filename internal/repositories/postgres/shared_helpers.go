package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/assessment-service/internal/repositories"
)

// translateError maps gorm errors onto the repository sentinels
func translateError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, repositories.ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: still referenced: %w", what, repositories.ErrConflict)
	default:
		return fmt.Errorf("failed to %s: %w", what, err)
	}
}

// ApplyPaginationAndSort applies ordering from a whitelist plus limit and offset
func ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"status":     true,
		"due_date":   true,
		"username":   true,
		"full_name":  true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(sortBy + " " + sortOrder)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// applySectionTargeting keeps rows whose JSON sections column is empty or contains section
func applySectionTargeting(query *gorm.DB, column, section string) *gorm.DB {
	needle, _ := json.Marshal([]string{section})
	return query.Where(
		fmt.Sprintf("(%[1]s IS NULL OR %[1]s IN ('[]'::jsonb, 'null'::jsonb) OR %[1]s @> ?::jsonb)", column),
		string(needle),
	)
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
	return "%" + s + "%"
}
