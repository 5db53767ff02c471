package store

// SQL statements for the star schema.
// Conflict clauses implement the sink contract: catalog inserts are
// idempotent, user rows are last-write-wins.
const (
	querySongInsert = `
		INSERT INTO songs (song_id, title, artist_id, year, duration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (song_id) DO NOTHING`

	queryArtistInsert = `
		INSERT INTO artists (artist_id, name, location, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (artist_id) DO NOTHING`

	queryTimeInsert = `
		INSERT INTO time (start_time, hour, day, week, month, year, weekday)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (start_time) DO NOTHING`

	queryUserUpsert = `
		INSERT INTO users (user_id, first_name, last_name, gender, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			gender     = EXCLUDED.gender,
			level      = EXCLUDED.level`

	querySongArtistLookup = `
		SELECT s.song_id, a.artist_id
		FROM songs s
		JOIN artists a ON a.artist_id = s.artist_id
		WHERE s.title = $1 AND a.name = $2 AND s.duration = $3
		ORDER BY s.song_id
		LIMIT 1`

	querySongplayInsert = `
		INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	queryDropTables = `
		DROP TABLE IF EXISTS songplays;
		DROP TABLE IF EXISTS users;
		DROP TABLE IF EXISTS songs;
		DROP TABLE IF EXISTS artists;
		DROP TABLE IF EXISTS time;`
)
