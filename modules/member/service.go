package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cultureforchange/members-api/pkg/email"
	"github.com/cultureforchange/members-api/pkg/logger"
	"github.com/cultureforchange/members-api/pkg/sanitizer"
	"github.com/cultureforchange/members-api/pkg/validator"
	"github.com/cultureforchange/members-api/strapi"
)

// CMS is the slice of the Strapi client the profile flows depend on.
type CMS interface {
	GetMember(ctx context.Context, documentID string) (*strapi.Member, error)
	ResolveInternalID(ctx context.Context, documentID string) (int, error)
	UpdateMember(ctx context.Context, internalID int, fields map[string]any) error
	UploadFile(ctx context.Context, filename, contentType string, data []byte) (*strapi.UploadedFile, error)
	DeleteFile(ctx context.Context, fileID int) error
}

// Service implements profile mutation and newsletter signup.
type Service struct {
	cms    CMS
	mailer email.Sender
	logger *slog.Logger
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates the member service.
func NewService(cms CMS, mailer email.Sender, opts ...Option) *Service {
	s := &Service{
		cms:    cms,
		mailer: mailer,
		logger: logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FileInput is an uploaded file extracted from a multipart request.
type FileInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProjectInput carries the mutable fields of one portfolio sub-record. Nil
// pointers mean the field was not submitted and must keep its current value.
type ProjectInput struct {
	Title       *string
	Tags        *string
	Description *string

	// NewPictures are freshly uploaded files; KeptPictureIDs are the ids of
	// existing media associations that should survive. When ReplacePictures
	// is set, the final association list becomes kept plus newly-uploaded:
	// a full replace, not a merge. Dropped associations are not deleted
	// from storage.
	NewPictures     []FileInput
	KeptPictureIDs  []int
	ReplacePictures bool
}

// UpdateInput carries every mutable profile field. Nil pointers mean "not
// submitted": the assembled patch contains only present fields so the CMS
// keeps current values for the rest.
type UpdateInput struct {
	Name         *string
	Email        *string
	Bio          *string
	FieldsOfWork *string
	City         *string
	Province     *string
	Phone        *string
	Websites     *string

	ProfileImage *FileInput
	Project1     ProjectInput
	Project2     ProjectInput
}

// SoftFailure records a best-effort step that failed without failing the
// whole update, so tests and logs can see exactly what was skipped.
type SoftFailure struct {
	Step string
	Err  error
}

// UpdateResult reports the outcome of a profile update.
type UpdateResult struct {
	ProfileImageSet bool
	SoftFailures    []SoftFailure
}

func (r *UpdateResult) soft(step string, err error) {
	r.SoftFailures = append(r.SoftFailures, SoftFailure{Step: step, Err: err})
}

// ErrMemberNotFound is returned when the session's member no longer exists.
var ErrMemberNotFound = errors.New("member: not found")

// UpdateProfile applies the submitted fields to the member record. Image
// uploads are best-effort: a failed upload is recorded as a soft failure and
// the update proceeds without that field, because blocking every other change
// on a broken upload would leave the member unable to make any progress.
//
// The sequence upload → delete-old → update is not atomic against the CMS; a
// crash mid-way can orphan an upload. Accepted: orphans are cleaned up by
// out-of-band maintenance.
func (s *Service) UpdateProfile(ctx context.Context, memberID string, in UpdateInput) (*UpdateResult, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	fields := map[string]any{}

	setString(fields, "name", in.Name, sanitizer.Trim)
	setString(fields, "email", in.Email, sanitizer.NormalizeEmail)
	setString(fields, "fieldsOfWork", in.FieldsOfWork, sanitizer.Trim)
	setString(fields, "city", in.City, sanitizer.Trim)
	setString(fields, "province", in.Province, sanitizer.Trim)
	setString(fields, "phone", in.Phone, sanitizer.Trim)
	setString(fields, "websites", in.Websites, sanitizer.Trim)
	setRichText(fields, "bio", in.Bio)

	if in.ProfileImage != nil {
		s.applyProfileImage(ctx, memberID, *in.ProfileImage, fields, result)
	}

	if proj := s.assembleProject(ctx, "project1", in.Project1, result); proj != nil {
		fields["project1"] = proj
	}
	if proj := s.assembleProject(ctx, "project2", in.Project2, result); proj != nil {
		fields["project2"] = proj
	}

	if len(fields) == 0 {
		return result, nil
	}

	internalID, err := s.cms.ResolveInternalID(ctx, memberID)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	// Hard failure: the caller gets the raw upstream payload for debugging.
	if err := s.cms.UpdateMember(ctx, internalID, fields); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) validate(in UpdateInput) error {
	var rules []validator.Rule
	if in.Name != nil {
		rules = append(rules, validator.Required("name", *in.Name))
	}
	if in.Email != nil {
		rules = append(rules,
			validator.Required("email", *in.Email),
			validator.ValidEmail("email", sanitizer.NormalizeEmail(*in.Email)),
		)
	}
	return validator.Apply(rules...)
}

// applyProfileImage uploads the replacement image, removes the previous one
// from storage and points the record at the new upload. Each step is soft.
func (s *Service) applyProfileImage(ctx context.Context, memberID string, file FileInput, fields map[string]any, result *UpdateResult) {
	uploaded, err := s.cms.UploadFile(ctx, file.Filename, file.ContentType, file.Data)
	if err != nil {
		s.logger.Warn("profile image upload failed",
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
			slog.String("component", "member"),
		)
		result.soft("profileImage.upload", err)
		return
	}

	// The old image is replaced, so drop it from storage. Losing this step
	// only leaks an orphaned file.
	current, err := s.cms.GetMember(ctx, memberID)
	if err == nil && current.ProfileImage != nil {
		if err := s.cms.DeleteFile(ctx, current.ProfileImage.ID); err != nil {
			s.logger.Warn("stale profile image cleanup failed",
				slog.String("member_id", memberID),
				slog.Int("file_id", current.ProfileImage.ID),
				slog.String("error", err.Error()),
				slog.String("component", "member"),
			)
			result.soft("profileImage.cleanup", err)
		}
	} else if err != nil {
		result.soft("profileImage.cleanup", err)
	}

	fields["profileImage"] = uploaded.ID
	result.ProfileImageSet = true
}

// assembleProject builds the patch for one portfolio sub-record, uploading
// any newly added pictures. Returns nil when nothing was submitted.
func (s *Service) assembleProject(ctx context.Context, name string, in ProjectInput, result *UpdateResult) map[string]any {
	proj := map[string]any{}

	if in.Title != nil {
		proj["title"] = sanitizer.Trim(*in.Title)
	}
	if in.Tags != nil {
		proj["tags"] = sanitizer.Trim(*in.Tags)
	}
	setRichText(proj, "description", in.Description)

	if in.ReplacePictures {
		ids := append([]int{}, in.KeptPictureIDs...)
		for _, file := range in.NewPictures {
			uploaded, err := s.cms.UploadFile(ctx, file.Filename, file.ContentType, file.Data)
			if err != nil {
				s.logger.Warn("project picture upload failed",
					slog.String("project", name),
					slog.String("filename", file.Filename),
					slog.String("error", err.Error()),
					slog.String("component", "member"),
				)
				result.soft(name+".upload", err)
				continue
			}
			ids = append(ids, uploaded.ID)
		}
		proj["pictures"] = ids
	}

	if len(proj) == 0 {
		return nil
	}
	return proj
}

// Subscribe sends the newsletter confirmation email. Delivery is
// fire-and-forget: a failed send is logged and the signup still succeeds.
func (s *Service) Subscribe(ctx context.Context, emailAddr string) error {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if err := validator.Apply(
		validator.Required("email", emailAddr),
		validator.ValidEmail("email", emailAddr),
	); err != nil {
		return err
	}

	body, err := email.NewsletterWelcomeEmail(emailAddr)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   emailAddr,
			Subject:  "Welcome to the Culture for Change newsletter",
			BodyHTML: body,
			Tag:      "newsletter-welcome",
		}); err != nil {
			s.logger.Warn("newsletter welcome email delivery failed",
				slog.String("email", emailAddr),
				slog.String("error", err.Error()),
				slog.String("component", "member"),
			)
		}
	}()

	return nil
}

// setString writes a submitted string field into the patch after normalizing it.
func setString(fields map[string]any, key string, value *string, normalize func(string) string) {
	if value == nil {
		return
	}
	fields[key] = normalize(*value)
}

// setRichText converts a submitted non-blank string into the CMS block shape.
// Blank strings are omitted entirely so existing content is not overwritten
// with emptiness.
func setRichText(fields map[string]any, key string, value *string) {
	if value == nil {
		return
	}
	trimmed := sanitizer.Trim(*value)
	if trimmed == "" {
		return
	}
	fields[key] = strapi.TextToBlocks(trimmed)
}
