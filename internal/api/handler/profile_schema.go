package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// acceptedResponse is returned when work is handed off.
type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// --- Request types ---

type customLinkPayload struct {
	Title string `json:"title" validate:"required,max=120"`
	URL   string `json:"url"   validate:"required,url"`
}

// profileRequest is the full editable profile. PUT replaces every field, so
// omitted fields are cleared.
type profileRequest struct {
	Email        string `json:"email"         validate:"required,email"`
	DisplayName  string `json:"display_name"  validate:"max=200"`
	FirstName    string `json:"first_name"    validate:"max=100"`
	LastName     string `json:"last_name"     validate:"max=100"`
	PhoneNumber  string `json:"phone_number"  validate:"max=40"`
	MobileNumber string `json:"mobile_number" validate:"max=40"`
	Office       string `json:"office"        validate:"max=200"`
	JobTitle     string `json:"job_title"     validate:"max=200"`
	PersonType   string `json:"person_type"   validate:"omitempty,oneof=loan_officer agent staff leadership"`
	Biography    string `json:"biography"     validate:"max=20000"`
	NMLS         string `json:"nmls"          validate:"max=40"`
	License      string `json:"license"       validate:"max=80"`
	DRELicense   string `json:"dre_license"   validate:"max=80"`
	Company      string `json:"company"       validate:"max=200"`
	CityState    string `json:"city_state"    validate:"max=200"`
	Region       string `json:"region"        validate:"max=100"`
	HeadshotID   string `json:"headshot_id"   validate:"max=500"`
	CustomSlug   string `json:"custom_slug"   validate:"max=200"`
	Website      string `json:"website"       validate:"omitempty,url"`
	FacebookURL  string `json:"facebook_url"  validate:"omitempty,url"`
	InstagramURL string `json:"instagram_url" validate:"omitempty,url"`
	LinkedInURL  string `json:"linkedin_url"  validate:"omitempty,url"`
	TwitterURL   string `json:"twitter_url"   validate:"omitempty,url"`
	YouTubeURL   string `json:"youtube_url"   validate:"omitempty,url"`
	TikTokURL    string `json:"tiktok_url"    validate:"omitempty,url"`
	ArriveURL    string `json:"arrive_url"    validate:"omitempty,url"`
	Status       string `json:"status"        validate:"omitempty,oneof=active inactive"`

	Specialties    []string            `json:"specialties"    validate:"max=50,dive,max=120"`
	Languages      []string            `json:"languages"      validate:"max=50,dive,max=60"`
	Awards         []string            `json:"awards"         validate:"max=50,dive,max=200"`
	Certifications []string            `json:"certifications" validate:"max=50,dive,max=120"`
	ServiceAreas   []string            `json:"service_areas"  validate:"max=100,dive,max=120"`
	CustomLinks    []customLinkPayload `json:"custom_links"   validate:"max=20,dive"`
}

type createProfileRequest struct {
	profileRequest
	Role string `json:"role" validate:"omitempty,oneof=admin member"`
}

type listProfilesQuery struct {
	PersonType string `query:"person_type" validate:"omitempty,oneof=loan_officer agent staff leadership"`
	Region     string `query:"region"      validate:"max=100"`
	Status     string `query:"status"      validate:"omitempty,oneof=active inactive"`
	Search     string `query:"search"      validate:"max=200"`
	Page       int    `query:"page"        validate:"gte=0"`
	Limit      int    `query:"limit"       validate:"gte=0"`
}

// --- Response types ---

// publicProfileResponse is what the public directory exposes.
type publicProfileResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	DisplayName  string `json:"display_name"`
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Office       string `json:"office,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	PersonType   string `json:"person_type,omitempty"`
	Biography    string `json:"biography,omitempty"`
	NMLS         string `json:"nmls,omitempty"`
	License      string `json:"license,omitempty"`
	DRELicense   string `json:"dre_license,omitempty"`
	Company      string `json:"company,omitempty"`
	CityState    string `json:"city_state,omitempty"`
	Region       string `json:"region,omitempty"`
	Website      string `json:"website,omitempty"`
	FacebookURL  string `json:"facebook_url,omitempty"`
	InstagramURL string `json:"instagram_url,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	TwitterURL   string `json:"twitter_url,omitempty"`
	YouTubeURL   string `json:"youtube_url,omitempty"`
	TikTokURL    string `json:"tiktok_url,omitempty"`
	ArriveURL    string `json:"arrive_url,omitempty"`
	HeadshotURL  string `json:"headshot_url,omitempty"`
	AvatarURL    string `json:"avatar_url"`

	Specialties    []string            `json:"specialties"`
	Languages      []string            `json:"languages"`
	Awards         []string            `json:"awards"`
	Certifications []string            `json:"certifications"`
	ServiceAreas   []string            `json:"service_areas"`
	CustomLinks    []customLinkPayload `json:"custom_links"`
}

// profileResponse adds the fields only the owner and admins see.
type profileResponse struct {
	publicProfileResponse
	CanonicalSlug string    `json:"canonical_slug"`
	CustomSlug    string    `json:"custom_slug,omitempty"`
	HeadshotID    string    `json:"headshot_id,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type profilePageResponse struct {
	Data       []profileResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type directoryPageResponse struct {
	Data       []publicProfileResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}
