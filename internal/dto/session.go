package dto

// PutSessionRequest records the amount a requester asked for while they are
// still choosing a store.
type PutSessionRequest struct {
	PendingAmount int64 `json:"pendingAmount" binding:"required,gt=0"`
}

// SessionResponse is the requester's live conversation state.
type SessionResponse struct {
	RequesterID   string `json:"requesterID"`
	PendingAmount int64  `json:"pendingAmount"`
}
