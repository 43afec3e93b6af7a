package models

import "time"

// Subscriber — подписчик рассылки.
type Subscriber struct {
	ID        int64     `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// NewSubscriber — тело запроса на подписку.
type NewSubscriber struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Session — серверная сессия администратора.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    int64     `json:"userId" bson:"userId"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
