package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PersonType classifies a directory entry.
type PersonType string

const (
	PersonLoanOfficer PersonType = "loan_officer"
	PersonAgent       PersonType = "agent"
	PersonStaff       PersonType = "staff"
	PersonLeadership  PersonType = "leadership"
)

const (
	ProfileStatusActive   = "active"
	ProfileStatusInactive = "inactive"
)

// CustomLink is a user-defined link shown on the public profile page.
type CustomLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Profile is the aggregate root of the directory. Identity-level fields live on
// the owning identity record; every other field is stored as an independent
// attribute row (see attributes.go).
type Profile struct {
	ID          string
	Email       string
	Slug        string
	DisplayName string

	FirstName    string
	LastName     string
	PhoneNumber  string
	MobileNumber string
	Office       string
	JobTitle     string
	PersonType   string
	Biography    string
	NMLS         string
	License      string
	DRELicense   string
	Company      string
	CityState    string
	Region       string
	HeadshotID   string
	CustomSlug   string
	Website      string
	FacebookURL  string
	InstagramURL string
	LinkedInURL  string
	TwitterURL   string
	YouTubeURL   string
	TikTokURL    string
	ArriveURL    string
	Status       string

	Specialties    []string
	Languages      []string
	Awards         []string
	Certifications []string
	ServiceAreas   []string
	CustomLinks    []CustomLink

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile returns an empty profile for id with every collection initialised.
func NewProfile(id string) *Profile {
	p := &Profile{ID: id}
	p.EnsureCollections()
	return p
}

// FullName joins first and last name, falling back to the display name.
func (p *Profile) FullName() string {
	full := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if full == "" {
		return p.DisplayName
	}
	return full
}

// IsActive reports whether the profile is listed in the public directory.
// Profiles with no stored status count as active.
func (p *Profile) IsActive() bool {
	return p.Status == "" || p.Status == ProfileStatusActive
}

// PublicSlug is the slug used in public URLs: the custom override when set.
func (p *Profile) PublicSlug() string {
	if p.CustomSlug != "" {
		return p.CustomSlug
	}
	return p.Slug
}

// EnsureCollections replaces nil collections with empty slices.
func (p *Profile) EnsureCollections() {
	for _, f := range collectionFields {
		f.ensure(p)
	}
}

// MediaResolver turns stored media identifiers into public URLs.
type MediaResolver struct {
	// BaseURL is prefixed to headshot ids, e.g. "https://cdn.example.com/media".
	BaseURL string
	// DefaultAvatar is the gravatar "d" parameter. Defaults to "mp".
	DefaultAvatar string
}

// HeadshotURL resolves the stored headshot id. Ids that are already absolute
// URLs are returned untouched.
func (p *Profile) HeadshotURL(r MediaResolver) string {
	id := strings.TrimSpace(p.HeadshotID)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	if r.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + url.PathEscape(id)
}

// AvatarURL resolves headshot → gravatar → gravatar default image.
func (p *Profile) AvatarURL(r MediaResolver) string {
	if u := p.HeadshotURL(r); u != "" {
		return u
	}
	def := r.DefaultAvatar
	if def == "" {
		def = "mp"
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=256&d=%s", hex.EncodeToString(sum[:]), url.QueryEscape(def))
}
