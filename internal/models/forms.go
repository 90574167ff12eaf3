package models

// Upload is a file picked by the user: its name and raw bytes.
type Upload struct {
	Filename string
	Data     []byte
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterForm struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// PostForm is the create-post form as typed. Tags is the raw comma
// separated input.
type PostForm struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	PostType PostType `json:"post_type" validate:"required,oneof=notes jobs threads"`
	Tags     string   `json:"tags"`
	JobLink  string   `json:"job_link" validate:"omitempty,url"`
	File     *Upload  `json:"-"`
}

// NewPost is the payload of POST /api/posts.
type NewPost struct {
	Title    string
	Content  string
	PostType PostType
	Tags     []string
	JobLink  string
	File     *Upload
}

// ToNewPost builds the request payload. The job link is only kept for job
// listings and the attachment only for notes.
func (f PostForm) ToNewPost() NewPost {
	p := NewPost{
		Title:    f.Title,
		Content:  f.Content,
		PostType: f.PostType,
		Tags:     ParseTags(f.Tags),
	}
	if f.PostType == PostJobs {
		p.JobLink = f.JobLink
	}
	if f.PostType == PostNotes && f.File != nil {
		p.File = f.File
	}
	return p
}

// AttachmentExtensions are the document types advertised for note
// attachments. The server decides what it accepts.
var AttachmentExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".ppt", ".pptx"}

// ProfileForm is the editable part of the current user's profile.
type ProfileForm struct {
	FullName string `json:"full_name"`
	Username string `json:"username" validate:"required,min=3"`
	Bio      string `json:"bio"`
}

// ProfileFormFrom seeds an edit form from u.
func ProfileFormFrom(u User) ProfileForm {
	return ProfileForm{FullName: u.FullName, Username: u.Username, Bio: u.Bio}
}

// Patch turns the form into the partial user sent to PUT /api/user/profile.
func (f ProfileForm) Patch() UserPatch {
	fullName, username, bio := f.FullName, f.Username, f.Bio
	return UserPatch{FullName: &fullName, Username: &username, Bio: &bio}
}
