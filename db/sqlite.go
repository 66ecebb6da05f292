package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"heartrisk/content"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB opens the SQLite content store and seeds the informational page.
// Only static content lives here; form submissions are never written.
func InitDB(path string) error {
	if err := Close(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	handle, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS news_items (
        id INTEGER PRIMARY KEY,
        position INTEGER NOT NULL UNIQUE,
        title TEXT NOT NULL,
        url TEXT NOT NULL,
        summary TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS usage_series (
        year INTEGER PRIMARY KEY,
        users INTEGER NOT NULL
    );
    `

	if _, err = handle.Exec(query); err != nil {
		handle.Close()
		return err
	}
	if err = seed(handle); err != nil {
		handle.Close()
		return err
	}
	database = handle
	return nil
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// seed upserts the bundled content and prunes rows it no longer has, so an
// existing store always matches the content package.
func seed(handle *sql.DB) error {
	tx, err := handle.Begin()
	if err != nil {
		return err
	}

	items := content.NewsItems()
	for i, item := range items {
		_, err = tx.Exec(`
        INSERT INTO news_items (position, title, url, summary)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(position) DO UPDATE SET
            title = excluded.title,
            url = excluded.url,
            summary = excluded.summary`,
			i, item.Title, item.URL, item.Summary)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if _, err = tx.Exec(`DELETE FROM news_items WHERE position >= ?`, len(items)); err != nil {
		tx.Rollback()
		return err
	}

	series := content.UsageSeries()
	years := make([]interface{}, 0, len(series))
	for _, point := range series {
		_, err = tx.Exec(`
        INSERT INTO usage_series (year, users)
        VALUES (?, ?)
        ON CONFLICT(year) DO UPDATE SET users = excluded.users`,
			point.Year, point.Users)
		if err != nil {
			tx.Rollback()
			return err
		}
		years = append(years, point.Year)
	}
	prune := `DELETE FROM usage_series`
	if len(years) > 0 {
		prune += ` WHERE year NOT IN (?` + strings.Repeat(", ?", len(years)-1) + `)`
	}
	if _, err = tx.Exec(prune, years...); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// QueryNews returns the news items in display order.
func QueryNews() ([]content.NewsItem, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT title, url, summary
        FROM news_items
        ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]content.NewsItem, 0)
	for rows.Next() {
		var item content.NewsItem
		if err := rows.Scan(&item.Title, &item.URL, &item.Summary); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// QueryUsageSeries returns the simulated user counts ordered by year.
func QueryUsageSeries() ([]content.UsagePoint, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT year, users
        FROM usage_series
        ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]content.UsagePoint, 0)
	for rows.Next() {
		var point content.UsagePoint
		if err := rows.Scan(&point.Year, &point.Users); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
