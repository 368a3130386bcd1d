package domain

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MetaPrefix namespaces every attribute key owned by the directory. The keys
// are a wire format: the meta mirror and external readers depend on them.
const MetaPrefix = "frs_"

// Attribute keys referenced outside the schema table.
const (
	KeyPersonType   = MetaPrefix + "person_type"
	KeyRegion       = MetaPrefix + "region"
	KeyStatus       = MetaPrefix + "status"
	KeyCustomSlug   = MetaPrefix + "custom_slug"
	KeyServiceAreas = MetaPrefix + "service_areas"
)

type scalarField struct {
	key string
	ptr func(*Profile) *string
}

var scalarFields = []scalarField{
	{MetaPrefix + "first_name", func(p *Profile) *string { return &p.FirstName }},
	{MetaPrefix + "last_name", func(p *Profile) *string { return &p.LastName }},
	{MetaPrefix + "phone_number", func(p *Profile) *string { return &p.PhoneNumber }},
	{MetaPrefix + "mobile_number", func(p *Profile) *string { return &p.MobileNumber }},
	{MetaPrefix + "office", func(p *Profile) *string { return &p.Office }},
	{MetaPrefix + "job_title", func(p *Profile) *string { return &p.JobTitle }},
	{KeyPersonType, func(p *Profile) *string { return &p.PersonType }},
	{MetaPrefix + "biography", func(p *Profile) *string { return &p.Biography }},
	{MetaPrefix + "nmls", func(p *Profile) *string { return &p.NMLS }},
	{MetaPrefix + "license_number", func(p *Profile) *string { return &p.License }},
	{MetaPrefix + "dre_license", func(p *Profile) *string { return &p.DRELicense }},
	{MetaPrefix + "company", func(p *Profile) *string { return &p.Company }},
	{MetaPrefix + "city_state", func(p *Profile) *string { return &p.CityState }},
	{KeyRegion, func(p *Profile) *string { return &p.Region }},
	{MetaPrefix + "headshot_id", func(p *Profile) *string { return &p.HeadshotID }},
	{KeyCustomSlug, func(p *Profile) *string { return &p.CustomSlug }},
	{MetaPrefix + "website", func(p *Profile) *string { return &p.Website }},
	{MetaPrefix + "facebook_url", func(p *Profile) *string { return &p.FacebookURL }},
	{MetaPrefix + "instagram_url", func(p *Profile) *string { return &p.InstagramURL }},
	{MetaPrefix + "linkedin_url", func(p *Profile) *string { return &p.LinkedInURL }},
	{MetaPrefix + "twitter_url", func(p *Profile) *string { return &p.TwitterURL }},
	{MetaPrefix + "youtube_url", func(p *Profile) *string { return &p.YouTubeURL }},
	{MetaPrefix + "tiktok_url", func(p *Profile) *string { return &p.TikTokURL }},
	{MetaPrefix + "arrive_url", func(p *Profile) *string { return &p.ArriveURL }},
	{KeyStatus, func(p *Profile) *string { return &p.Status }},
}

// collectionField is a JSON-column attribute.
type collectionField interface {
	key() string
	encode(p *Profile) string
	decode(p *Profile, raw string)
	ensure(p *Profile)
}

type sliceField[T any] struct {
	name string
	ptr  func(*Profile) *[]T
}

func (f sliceField[T]) key() string { return f.name }

func (f sliceField[T]) encode(p *Profile) string {
	v := *f.ptr(p)
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decode never fails: missing, null or malformed values become an empty slice.
func (f sliceField[T]) decode(p *Profile, raw string) {
	out := []T{}
	if raw = strings.TrimSpace(raw); raw != "" {
		var decoded []T
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil && decoded != nil {
			out = decoded
		}
	}
	*f.ptr(p) = out
}

func (f sliceField[T]) ensure(p *Profile) {
	if *f.ptr(p) == nil {
		*f.ptr(p) = []T{}
	}
}

var collectionFields = []collectionField{
	sliceField[string]{MetaPrefix + "specialties", func(p *Profile) *[]string { return &p.Specialties }},
	sliceField[string]{MetaPrefix + "languages", func(p *Profile) *[]string { return &p.Languages }},
	sliceField[string]{MetaPrefix + "awards", func(p *Profile) *[]string { return &p.Awards }},
	sliceField[string]{MetaPrefix + "certifications", func(p *Profile) *[]string { return &p.Certifications }},
	sliceField[string]{KeyServiceAreas, func(p *Profile) *[]string { return &p.ServiceAreas }},
	sliceField[CustomLink]{MetaPrefix + "custom_links", func(p *Profile) *[]CustomLink { return &p.CustomLinks }},
}

// AttributeKeys lists every tracked attribute key in schema order.
func AttributeKeys() []string {
	keys := make([]string, 0, len(scalarFields)+len(collectionFields))
	for _, f := range scalarFields {
		keys = append(keys, f.key)
	}
	for _, f := range collectionFields {
		keys = append(keys, f.key())
	}
	return keys
}

// IsCollectionKey reports whether key holds a JSON-encoded array.
func IsCollectionKey(key string) bool {
	for _, f := range collectionFields {
		if f.key() == key {
			return true
		}
	}
	return false
}

// Flatten encodes every tracked attribute of p. The result always contains the
// full key set so a save rewrites all of them.
func Flatten(p *Profile) map[string]string {
	attrs := make(map[string]string, len(scalarFields)+len(collectionFields))
	for _, f := range scalarFields {
		attrs[f.key] = *f.ptr(p)
	}
	for _, f := range collectionFields {
		attrs[f.key()] = f.encode(p)
	}
	return attrs
}

// Hydrate fills p from stored attributes. Unknown keys are ignored; missing
// scalars become "" and missing or malformed collections become empty slices.
func Hydrate(p *Profile, attrs map[string]string) {
	for _, f := range scalarFields {
		*f.ptr(p) = attrs[f.key]
	}
	for _, f := range collectionFields {
		f.decode(p, attrs[f.key()])
	}
}

// Slugify builds a URL slug from name parts: "José  O'Neil" → "jose-o-neil".
func Slugify(parts ...string) string {
	joined := strings.Join(parts, " ")
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, joined)
	if err != nil {
		folded = joined
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
