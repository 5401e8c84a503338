package cart

var Schema = []string{
	`CREATE TABLE IF NOT EXISTS carts (
		id BIGINT NOT NULL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT NOT NULL PRIMARY KEY,
		cart_id BIGINT NOT NULL,
		game_id BIGINT NOT NULL,
		game_title VARCHAR(200) NOT NULL DEFAULT '',
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (cart_id, game_id),
		FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE ON UPDATE CASCADE
	)`,
}
