package playlist

import (
	"errors"
	"regexp"

	"listen80/core/apperr"
	"listen80/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ulidPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ReplaceInput is the new content of a playlist.
type ReplaceInput struct {
	Name      string
	SongULIDs []string
	IsPublic  bool
}

// Validate checks the input before anything is written.
func (in ReplaceInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	err := validation.Validate(in.SongULIDs,
		validation.Length(0, model.MaxPlaylistSongs),
		validation.By(distinct),
	)
	if err != nil {
		return apperr.Validation("invalid song_ulids")
	}
	return nil
}

func validateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(model.PlaylistNameMinLength, model.PlaylistNameMaxLength),
	)
	if err != nil {
		return apperr.Validation("invalid name")
	}
	return nil
}

// ValidULID reports whether s has the shape of a playlist or song ulid.
func ValidULID(s string) bool {
	return validation.Validate(s, validation.Required, validation.Match(ulidPattern)) == nil
}

func distinct(value interface{}) error {
	ulids, _ := value.([]string)
	seen := make(map[string]struct{}, len(ulids))
	for _, u := range ulids {
		if _, ok := seen[u]; ok {
			return errors.New("duplicated song ulid")
		}
		seen[u] = struct{}{}
	}
	return nil
}
