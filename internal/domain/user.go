package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Claims is the identity decoded from the access token. No raw
// credentials beyond the token string itself are ever stored.
type Claims struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Profile is displayable identity info, fetched lazily and
// independently of Claims. It may be absent while Claims is present.
type Profile struct {
	Name     Name   `json:"name"`
	FullName string `json:"fullName"`
	Image    string `json:"image"`
}

type Name struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"fullName"`
	IsBlocked bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
}
