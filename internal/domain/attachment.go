package domain

import "time"

// MaxAttachmentSize is the largest accepted attachment, in bytes.
const MaxAttachmentSize = 25 << 20

// Attachment describes a file attached to a task request. The file itself
// lives in external storage at StoragePath.
type Attachment struct {
	ID            int64
	TaskRequestID string
	UserID        int64
	FileName      string
	ContentType   string
	SizeBytes     int64
	StoragePath   string
	CreatedAt     time.Time
}

// IsUploadedBy checks if the attachment was uploaded by the given user.
func (a *Attachment) IsUploadedBy(userID int64) bool {
	return a.UserID == userID
}
