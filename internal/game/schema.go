package game

// Schema is portable between MySQL and SQLite.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id BIGINT NOT NULL PRIMARY KEY,
		title VARCHAR(200) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		genre VARCHAR(50) NOT NULL,
		developer VARCHAR(100) NOT NULL DEFAULT '',
		publisher VARCHAR(100) NOT NULL DEFAULT '',
		price DECIMAL(10,2) NOT NULL,
		image_url VARCHAR(500) NOT NULL DEFAULT '',
		release_date DATETIME,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}
