package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates every table the application uses. Statements are
// idempotent so the server can run them at every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'PLAYER',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		matisse_wins INT NOT NULL DEFAULT 0,
		joe_wins INT NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		winner VARCHAR(16) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_sessions_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS games (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		session_id BIGINT UNSIGNED NOT NULL,
		winner VARCHAR(16) NOT NULL,
		game_number INT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_games_session (session_id),
		CONSTRAINT fk_games_session FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS kelly_games (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		players JSON NOT NULL,
		balls_per_player INT NOT NULL,
		balls_pocketed JSON NOT NULL,
		winner VARCHAR(255) NULL,
		total_balls INT NOT NULL DEFAULT 15,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_kelly_games_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS kelly_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		kelly_game_id BIGINT UNSIGNED NOT NULL,
		action VARCHAR(16) NOT NULL,
		ball_number INT NULL,
		player_name VARCHAR(255) NOT NULL,
		timestamp DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_kelly_history_game (kelly_game_id),
		CONSTRAINT fk_kelly_history_game FOREIGN KEY (kelly_game_id) REFERENCES kelly_games (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema runs the table-creation statements against the connected
// database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
