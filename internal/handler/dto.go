package handler

import (
	"time"

	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/imaging"
	"github.com/msomdec/cinelist/internal/service"
)

// UserDTO is the JSON representation of a user. PhotoURL repeats
// ProfilePicture for older clients.
type UserDTO struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	PhotoURL       string `json:"photoURL,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.Picture(),
		PhotoURL:       u.Picture(),
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      u.UpdatedAt.Format(time.RFC3339),
	}
}

// PictureResultDTO is the outcome of a picture upload or re-encode.
type PictureResultDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	DataURI string `json:"dataUri,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	SizeKB  int    `json:"sizeKB,omitempty"`
	Changed *bool  `json:"changed,omitempty"`
}

func toPictureResultDTO(img imaging.EncodedImage) PictureResultDTO {
	return PictureResultDTO{
		Success: true,
		DataURI: img.DataURI(),
		Width:   img.Width,
		Height:  img.Height,
		SizeKB:  img.SizeKB(),
	}
}

// PictureDTO describes the stored picture.
type PictureDTO struct {
	DataURI  string `json:"dataUri"`
	MimeType string `json:"mimeType"`
	SizeKB   int    `json:"sizeKB"`
	IsValid  bool   `json:"isValid"`
}

func toPictureDTO(p *service.Picture) PictureDTO {
	return PictureDTO{
		DataURI:  p.DataURI,
		MimeType: p.MimeType,
		SizeKB:   p.SizeKB,
		IsValid:  p.Valid,
	}
}

// MovieDTO is the JSON representation of a movie snapshot.
type MovieDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"posterPath,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
}

func (m MovieDTO) toDomain() domain.Movie {
	return domain.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
	}
}

// FavoriteDTO is the JSON representation of a favorite.
type FavoriteDTO struct {
	Movie   MovieDTO `json:"movie"`
	AddedAt string   `json:"addedAt"`
}

func toFavoriteDTO(f domain.Favorite) FavoriteDTO {
	return FavoriteDTO{
		Movie: MovieDTO{
			ID:          f.Movie.ID,
			Title:       f.Movie.Title,
			Overview:    f.Movie.Overview,
			PosterPath:  f.Movie.PosterPath,
			ReleaseDate: f.Movie.ReleaseDate,
			VoteAverage: f.Movie.VoteAverage,
		},
		AddedAt: f.AddedAt.Format(time.RFC3339),
	}
}

func toFavoriteDTOs(favorites []domain.Favorite) []FavoriteDTO {
	dtos := make([]FavoriteDTO, len(favorites))
	for i, f := range favorites {
		dtos[i] = toFavoriteDTO(f)
	}
	return dtos
}

// PreferencesDTO is the JSON representation of user preferences.
type PreferencesDTO struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	AutoSync      bool   `json:"autoSync"`
}

func toPreferencesDTO(p domain.Preferences) PreferencesDTO {
	return PreferencesDTO{
		Theme:         string(p.Theme),
		Notifications: p.Notifications,
		AutoSync:      p.AutoSync,
	}
}
