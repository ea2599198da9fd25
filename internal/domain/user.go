package domain

// User represents a chat user and their reminder preferences.
// Users are created lazily with defaults on first interaction and never deleted.
type User struct {
	ID          int64  // Telegram user id, stable external identity
	Timezone    string // IANA zone name, e.g. "Europe/Rome"
	NotifyTime  string // local wall-clock "HH:MM"
	DisplayName string
	Handle      string
}

// Exam is a dated event owned by a single user.
type Exam struct {
	UserID     int64
	UserExamID int    // unique per user, assigned sequentially; not globally unique
	Title      string
	DateTime   string // naive local ISO datetime, interpreted in the owner's timezone
}
