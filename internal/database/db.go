package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds idempotent DDL executed at startup. Statements use
// IF NOT EXISTS so repeated boots are safe; altering existing columns is
// out of scope here.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		mobile_no VARCHAR(20) NOT NULL,
		dob DATE NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'user',
		active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_mobile (mobile_no)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		session_token CHAR(64) NOT NULL,
		ip_address VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_sessions_token (session_token),
		KEY idx_sessions_user (user_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS login_attempts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		ip_address VARCHAR(64) NOT NULL,
		username VARCHAR(64) NULL,
		success TINYINT(1) NOT NULL DEFAULT 0,
		attempted_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_attempts_ip_time (ip_address, attempted_at)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS otp_verifications (
		email VARCHAR(255) NOT NULL,
		code CHAR(6) NOT NULL,
		purpose VARCHAR(16) NOT NULL,
		expires_at DATETIME NOT NULL,
		PRIMARY KEY (email)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS menus (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		restaurant_name VARCHAR(64) NOT NULL,
		display_name VARCHAR(128) NOT NULL,
		sections JSON NOT NULL,
		todays_special JSON NULL,
		qr_code_url VARCHAR(512) NOT NULL DEFAULT '',
		display_mode VARCHAR(16) NOT NULL DEFAULT 'stacked',
		background_type VARCHAR(16) NOT NULL DEFAULT 'color',
		background_value VARCHAR(32) NOT NULL DEFAULT '#ffffff',
		background_image MEDIUMBLOB NULL,
		background_image_type VARCHAR(64) NULL,
		logo MEDIUMBLOB NULL,
		logo_type VARCHAR(64) NULL,
		social_links JSON NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_menus_restaurant (restaurant_id),
		UNIQUE KEY uq_menus_name (restaurant_name)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS menu_logs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		action VARCHAR(16) NOT NULL,
		target_type VARCHAR(32) NOT NULL,
		target_id BIGINT UNSIGNED NOT NULL,
		details JSON NULL,
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_menu_logs_user_time (user_id, created_at)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		restaurant_name VARCHAR(64) NOT NULL,
		duration_sec INT NOT NULL DEFAULT 0,
		viewed_sections JSON NULL,
		referrer VARCHAR(512) NOT NULL DEFAULT '',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		visited_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_analytics_restaurant (restaurant_name)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS contact_leads (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone_number VARCHAR(32) NOT NULL DEFAULT '',
		company VARCHAR(128) NOT NULL DEFAULT '',
		message TEXT,
		country VARCHAR(64) NOT NULL DEFAULT '',
		agreed TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB`,
}

// EnsureSchema creates all application tables if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
