package handler

import (
	"strings"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// applyProfileRequest copies every editable field of r onto p. Identity
// fields owned by the store (ID, canonical slug, timestamps) are untouched.
func applyProfileRequest(p *domain.Profile, r profileRequest) {
	p.Email = strings.TrimSpace(r.Email)
	p.DisplayName = strings.TrimSpace(r.DisplayName)
	p.FirstName = strings.TrimSpace(r.FirstName)
	p.LastName = strings.TrimSpace(r.LastName)
	p.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	p.MobileNumber = strings.TrimSpace(r.MobileNumber)
	p.Office = strings.TrimSpace(r.Office)
	p.JobTitle = strings.TrimSpace(r.JobTitle)
	p.PersonType = r.PersonType
	p.Biography = r.Biography
	p.NMLS = strings.TrimSpace(r.NMLS)
	p.License = strings.TrimSpace(r.License)
	p.DRELicense = strings.TrimSpace(r.DRELicense)
	p.Company = strings.TrimSpace(r.Company)
	p.CityState = strings.TrimSpace(r.CityState)
	p.Region = strings.TrimSpace(r.Region)
	p.HeadshotID = strings.TrimSpace(r.HeadshotID)
	p.CustomSlug = strings.TrimSpace(r.CustomSlug)
	p.Website = r.Website
	p.FacebookURL = r.FacebookURL
	p.InstagramURL = r.InstagramURL
	p.LinkedInURL = r.LinkedInURL
	p.TwitterURL = r.TwitterURL
	p.YouTubeURL = r.YouTubeURL
	p.TikTokURL = r.TikTokURL
	p.ArriveURL = r.ArriveURL
	p.Status = r.Status

	p.Specialties = r.Specialties
	p.Languages = r.Languages
	p.Awards = r.Awards
	p.Certifications = r.Certifications
	p.ServiceAreas = r.ServiceAreas
	p.CustomLinks = make([]domain.CustomLink, 0, len(r.CustomLinks))
	for _, l := range r.CustomLinks {
		p.CustomLinks = append(p.CustomLinks, domain.CustomLink{Title: l.Title, URL: l.URL})
	}
	p.EnsureCollections()
}

func toCreateProfileInput(r createProfileRequest) ports.CreateProfileInput {
	p := domain.NewProfile("")
	applyProfileRequest(p, r.profileRequest)
	return ports.CreateProfileInput{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      r.Role,
		Profile:   p,
	}
}

func toPublicProfileResponse(p *domain.Profile, media domain.MediaResolver) publicProfileResponse {
	p.EnsureCollections()
	links := make([]customLinkPayload, 0, len(p.CustomLinks))
	for _, l := range p.CustomLinks {
		links = append(links, customLinkPayload{Title: l.Title, URL: l.URL})
	}
	return publicProfileResponse{
		ID:             p.ID,
		Slug:           p.PublicSlug(),
		DisplayName:    p.DisplayName,
		FullName:       p.FullName(),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		MobileNumber:   p.MobileNumber,
		Office:         p.Office,
		JobTitle:       p.JobTitle,
		PersonType:     p.PersonType,
		Biography:      p.Biography,
		NMLS:           p.NMLS,
		License:        p.License,
		DRELicense:     p.DRELicense,
		Company:        p.Company,
		CityState:      p.CityState,
		Region:         p.Region,
		Website:        p.Website,
		FacebookURL:    p.FacebookURL,
		InstagramURL:   p.InstagramURL,
		LinkedInURL:    p.LinkedInURL,
		TwitterURL:     p.TwitterURL,
		YouTubeURL:     p.YouTubeURL,
		TikTokURL:      p.TikTokURL,
		ArriveURL:      p.ArriveURL,
		HeadshotURL:    p.HeadshotURL(media),
		AvatarURL:      p.AvatarURL(media),
		Specialties:    p.Specialties,
		Languages:      p.Languages,
		Awards:         p.Awards,
		Certifications: p.Certifications,
		ServiceAreas:   p.ServiceAreas,
		CustomLinks:    links,
	}
}

func toProfileResponse(p *domain.Profile, media domain.MediaResolver) profileResponse {
	status := p.Status
	if status == "" {
		status = domain.ProfileStatusActive
	}
	return profileResponse{
		publicProfileResponse: toPublicProfileResponse(p, media),
		CanonicalSlug:         p.Slug,
		CustomSlug:            p.CustomSlug,
		HeadshotID:            p.HeadshotID,
		Status:                status,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toProfilePageResponse(page *ports.ProfilePage, media domain.MediaResolver) profilePageResponse {
	data := make([]profileResponse, 0, len(page.Items))
	for _, p := range page.Items {
		data = append(data, toProfileResponse(p, media))
	}
	return profilePageResponse{
		Data:       data,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

func toDirectoryPageResponse(page *ports.ProfilePage, media domain.MediaResolver) directoryPageResponse {
	data := make([]publicProfileResponse, 0, len(page.Items))
	for _, p := range page.Items {
		data = append(data, toPublicProfileResponse(p, media))
	}
	return directoryPageResponse{
		Data:       data,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}
