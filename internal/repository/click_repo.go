package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BetenlaceSync/internal/model"
)

// ClickRepository click-history 库的只读访问，独立连接池
type ClickRepository struct {
	db *sql.DB
}

func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// CountsByDay [from, to] 闭区间内按 (link, day) 汇总的点击数
func (r *ClickRepository) CountsByDay(ctx context.Context, from, to time.Time) ([]model.ClickCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT link_id, CAST(created_at AS DATE) AS day, SUM(count) AS clicks
		FROM click_tracking
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY link_id, CAST(created_at AS DATE)
		ORDER BY link_id, day`, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("查询点击库失败: %w", err)
	}
	defer rows.Close()

	var out []model.ClickCount
	for rows.Next() {
		var c model.ClickCount
		if err := rows.Scan(&c.LinkID, &c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("读取点击汇总失败: %w", err)
		}
		c.Day = time.Date(c.Day.Year(), c.Day.Month(), c.Day.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, c)
	}
	return out, rows.Err()
}
