// Package models содержит доменные сущности блога: пользователей, посты,
// подписчиков рассылки и сессии, а также структуры входных данных для их
// создания и частичного обновления.
package models

// User представляет учётную запись автора или администратора.
type User struct {
	ID           int64  `json:"id" bson:"_id"`
	Username     string `json:"username" bson:"username"`
	PasswordHash string `json:"-" bson:"password"` // "<hash-hex>.<salt-hex>", наружу не отдаётся
	DisplayName  string `json:"displayName" bson:"displayName"`
	ProfileImage string `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	IsAdmin      bool   `json:"isAdmin" bson:"isAdmin"`
}

// NewUser — данные для создания пользователя. Пароль уже захеширован.
type NewUser struct {
	Username     string
	PasswordHash string
	DisplayName  string
	ProfileImage string
	IsAdmin      bool
}

// Build собирает пользователя, подставляя имя пользователя вместо пустого отображаемого имени.
func (n NewUser) Build(id int64) User {
	display := n.DisplayName
	if display == "" {
		display = n.Username
	}
	return User{
		ID:           id,
		Username:     n.Username,
		PasswordHash: n.PasswordHash,
		DisplayName:  display,
		ProfileImage: n.ProfileImage,
		IsAdmin:      n.IsAdmin,
	}
}

// UserUpdate описывает частичное обновление профиля. nil означает "не менять".
type UserUpdate struct {
	DisplayName  *string
	ProfileImage *string
	PasswordHash *string
}

// Apply применяет обновление к пользователю.
func (u UserUpdate) Apply(user *User) {
	if u.DisplayName != nil {
		user.DisplayName = *u.DisplayName
	}
	if u.ProfileImage != nil {
		user.ProfileImage = *u.ProfileImage
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
}

// RegisterRequest — тело запроса на создание пользователя администратором.
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Password     string `json:"password" validate:"required,min=6,max=128"`
	DisplayName  string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	ProfileImage string `json:"profileImage,omitempty" validate:"omitempty,url"`
	IsAdmin      bool   `json:"isAdmin"`
}

// LoginRequest — тело запроса на вход.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest — тело запроса на изменение собственного профиля.
type ProfileRequest struct {
	DisplayName  *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=100"`
	ProfileImage *string `json:"profileImage,omitempty" validate:"omitempty,url"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
}
