package dto

// TokenRequest exchanges a requester id and access key for a bearer token.
type TokenRequest struct {
	RequesterID string `json:"requesterID" binding:"required"`
	AccessKey   string `json:"accessKey" binding:"required"`
}

// TokenResponse carries the signed requester JWT.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}
