package domain

import "time"

type Review struct {
	ID        string       `json:"id"`
	User      ReviewAuthor `json:"user"`
	BookID    string       `json:"book"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type ReviewAuthor struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Image    string `json:"image"`
}
