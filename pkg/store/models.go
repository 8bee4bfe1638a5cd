package store

// MessageModel is the GORM model backing the messages table.
// Timestamp defaults to the insert time in epoch microseconds and is read
// back with RETURNING.
type MessageModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"type:text;not null"`
	Message   string `gorm:"type:text;not null"`
	Timestamp int64  `gorm:"not null;index;default:(extract(epoch from clock_timestamp()) * 1000000)::bigint"`
}

// TableName pins the table name to the schema the board has always used.
func (MessageModel) TableName() string {
	return "messages"
}
