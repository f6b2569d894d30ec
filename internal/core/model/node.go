package model

import "time"

type Person struct {
	ID        string    `json:"id"`
	Session   string    `json:"uid"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Attribute nodes are created per occurrence and never deduplicated.
type Attribute struct {
	ID        string    `json:"id"`
	Session   string    `json:"uid"`
	Value     string    `json:"attribute"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialContact is a third party mentioned in chat who is not a registered user.
type SocialContact struct {
	ID           string    `json:"id"`
	Session      string    `json:"uid"`
	Name         string    `json:"name"`
	AccountEmail string    `json:"account_email"`
	Relation     string    `json:"relation"`
	CreatedAt    time.Time `json:"created_at"`
}
