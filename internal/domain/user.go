package domain

import "time"

type User struct {
	UserID      string    `json:"id" dynamodbav:"user_id"`
	PhoneNumber string    `json:"phone_number" dynamodbav:"phone_number"`
	Username    string    `json:"username" dynamodbav:"username"`
	AvatarURL   string    `json:"avatar_url" dynamodbav:"avatar_url"`
	Status      string    `json:"status" dynamodbav:"status"`
	IsOnline    bool      `json:"is_online" dynamodbav:"is_online"`
	LastSeen    time.Time `json:"last_seen" dynamodbav:"last_seen"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Status   *string `json:"status" validate:"omitempty,max=140"`
}
