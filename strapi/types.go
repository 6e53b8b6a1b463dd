package strapi

import "time"

// Placeholder is the value the onboarding import writes into free-text
// fields that the member has not filled in yet.
const Placeholder = "-"

// Member is a person record in the members collection. The CMS exposes two
// identifiers for it: a stable document id used in URLs and tokens, and an
// internal numeric id that the update endpoint requires.
type Member struct {
	ID           int        `json:"id"`
	DocumentID   string     `json:"documentId"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Bio          Blocks     `json:"bio,omitempty"`
	FieldsOfWork string     `json:"fieldsOfWork,omitempty"`
	City         string     `json:"city,omitempty"`
	Province     string     `json:"province,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Websites     string     `json:"websites,omitempty"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	ProfileImage *Media     `json:"profileImage,omitempty"`
	Project1     *Project   `json:"project1,omitempty"`
	Project2     *Project   `json:"project2,omitempty"`
}

// Project is one of the two optional portfolio sub-records on a member.
type Project struct {
	ID          int     `json:"id,omitempty"`
	Title       string  `json:"title,omitempty"`
	Tags        string  `json:"tags,omitempty"`
	Description Blocks  `json:"description,omitempty"`
	Pictures    []Media `json:"pictures,omitempty"`
}

// Media is an uploaded file reference.
type Media struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// AuthToken is a per-email credential record, decoupled from Member. The
// email field is a lookup key but NOT unique at the storage layer; callers
// must handle multiple matches. Nullable fields are pointers because nulling
// them out is how a magic link gets burned.
type AuthToken struct {
	ID           int        `json:"id"`
	DocumentID   string     `json:"documentId"`
	Email        string     `json:"email"`
	TokenHash    *string    `json:"tokenHash"`
	TokenExpiry  *time.Time `json:"tokenExpiry"`
	TokenType    *string    `json:"tokenType"`
	PasswordHash *string    `json:"passwordHash"`
}

// TokenTypeMagicLink is the only token type currently issued.
const TokenTypeMagicLink = "magic-link"

// AuthTokenInput is the payload for creating an auth token record.
type AuthTokenInput struct {
	Email       string    `json:"email"`
	TokenHash   string    `json:"tokenHash"`
	TokenExpiry time.Time `json:"tokenExpiry"`
	TokenType   string    `json:"tokenType"`
}

// UploadedFile describes a file accepted by the CMS upload API.
type UploadedFile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// listResponse is the envelope for collection queries.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// itemResponse is the envelope for single-record queries and mutations.
type itemResponse[T any] struct {
	Data T `json:"data"`
}
