package mysql

// LAST_INSERT_ID(id) makes LastInsertId return the existing row's id on a
// duplicate identifier.
const upsertUserSQL = `
INSERT INTO users (identifier)
VALUES (?)
ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
`

const insertSessionSQL = `
INSERT INTO sessions (user_id, token)
VALUES (?, ?)
`

const insertFeedbackSQL = `
INSERT INTO feedback
  (user_id, session_id, hotel_id, restaurant_id, rating, comment)
VALUES
  (?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first. id is monotonic, so it orders ties in created_at too.
const recentFeedbackSQL = `
SELECT rating, COALESCE(comment, '')
FROM feedback
WHERE user_id = ?
ORDER BY id DESC
LIMIT ?
`

const listFeedbackSQL = `
SELECT id, user_id, session_id, hotel_id, restaurant_id, rating, COALESCE(comment, ''), created_at
FROM feedback
WHERE user_id = ?
ORDER BY id DESC
LIMIT ?
`

const getSessionSQL = `
SELECT id, user_id, token
FROM sessions
WHERE token = ?
`
