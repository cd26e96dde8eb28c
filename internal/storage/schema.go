package storage

// schema is applied in order on open. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS content (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		cleaned_content TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		word_count INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		published_date DATETIME,
		scraped_at DATETIME NOT NULL,
		processing_status TEXT NOT NULL DEFAULT 'pending'
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_hash ON content(content_hash)
		WHERE content_hash != ''`,
	`CREATE INDEX IF NOT EXISTS idx_content_status ON content(processing_status)`,
	`CREATE INDEX IF NOT EXISTS idx_content_scraped ON content(scraped_at)`,

	`CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_id INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		chunk_text TEXT NOT NULL,
		vector_id TEXT NOT NULL,
		embedding_model TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		UNIQUE(content_id, chunk_index),
		FOREIGN KEY(content_id) REFERENCES content(id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY,
		topics TEXT NOT NULL DEFAULT '[]',
		categories TEXT NOT NULL DEFAULT '[]',
		content_depth TEXT NOT NULL DEFAULT 'summaries',
		format TEXT NOT NULL DEFAULT 'bullet_points',
		article_length TEXT NOT NULL DEFAULT 'medium',
		frequency TEXT NOT NULL DEFAULT 'daily',
		language TEXT NOT NULL DEFAULT '',
		max_items INTEGER NOT NULL DEFAULT 10,
		include_trending INTEGER NOT NULL DEFAULT 0,
		include_summary INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS digests (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		digest_type TEXT NOT NULL,
		content TEXT NOT NULL,
		article_count INTEGER NOT NULL,
		word_count INTEGER NOT NULL,
		read_time_minutes INTEGER NOT NULL,
		model_used TEXT NOT NULL DEFAULT '',
		content_ids TEXT NOT NULL DEFAULT '[]',
		generated_at DATETIME NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_digests_user ON digests(user_id, generated_at)`,
}
