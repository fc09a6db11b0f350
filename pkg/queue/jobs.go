package queue

// Kind identifies a job queue. One durable queue is declared per kind.
type Kind string

const (
	// KindProcessMessage fan out one message status per room member
	KindProcessMessage Kind = "process-message"
	// KindHandleLastMessage maintain the per member last message pointer
	KindHandleLastMessage Kind = "handle-last-message"
	// KindClearRoomChat soft delete one user's statuses in a room
	KindClearRoomChat Kind = "clear-room-chat"
)

// ProcessMessage payload of KindProcessMessage
type ProcessMessage struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	SenderID  string `json:"senderId"`
}

// HandleLastMessage payload of KindHandleLastMessage. Insertion and deletion
// are both optional and can coexist in one job.
type HandleLastMessage struct {
	RoomID            string `json:"roomId"`
	InsertedMessageID string `json:"insertedMessageId,omitempty"`
	DeletedMessageID  string `json:"deletedMessageId,omitempty"`
}

// ClearRoomChat payload of KindClearRoomChat
type ClearRoomChat struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}
