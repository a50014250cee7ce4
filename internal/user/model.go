package user

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Color     string    `json:"color"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the identity shown next to messages and in participant lists.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Color    string `json:"color"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Color: u.Color}
}

// Listing is one entry of GET /users.
type Listing struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Fullname string `json:"fullname" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Registered is the payload of the userRegistered event.
type Registered struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Color    string `json:"color"`
	Active   bool   `json:"active"`
}

// Connected is the payload of the userConnected event.
type Connected struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}
