package auth

import "github.com/cultureforchange/members-api/strapi"

// MemberView is the sanitized member representation returned to the browser.
// Credential fields never appear here by construction, and rich-text blocks
// are flattened to plain strings.
type MemberView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Bio          string        `json:"bio,omitempty"`
	FieldsOfWork string        `json:"fieldsOfWork,omitempty"`
	City         string        `json:"city,omitempty"`
	Province     string        `json:"province,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Websites     string        `json:"websites,omitempty"`
	ProfileImage *strapi.Media `json:"profileImage,omitempty"`
	Project1     *ProjectView  `json:"project1,omitempty"`
	Project2     *ProjectView  `json:"project2,omitempty"`
}

// ProjectView is the sanitized portfolio sub-record.
type ProjectView struct {
	Title       string         `json:"title,omitempty"`
	Tags        string         `json:"tags,omitempty"`
	Description string         `json:"description,omitempty"`
	Pictures    []strapi.Media `json:"pictures,omitempty"`
}

// NewMemberView converts a CMS member record into its public shape.
func NewMemberView(m *strapi.Member) *MemberView {
	if m == nil {
		return nil
	}

	return &MemberView{
		ID:           m.DocumentID,
		Name:         m.Name,
		Email:        m.Email,
		Bio:          m.Bio.PlainText(),
		FieldsOfWork: m.FieldsOfWork,
		City:         m.City,
		Province:     m.Province,
		Phone:        m.Phone,
		Websites:     m.Websites,
		ProfileImage: m.ProfileImage,
		Project1:     newProjectView(m.Project1),
		Project2:     newProjectView(m.Project2),
	}
}

func newProjectView(p *strapi.Project) *ProjectView {
	if p == nil {
		return nil
	}
	return &ProjectView{
		Title:       p.Title,
		Tags:        p.Tags,
		Description: p.Description.PlainText(),
		Pictures:    p.Pictures,
	}
}
