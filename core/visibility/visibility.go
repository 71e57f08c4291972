// Package visibility decides which playlists a viewer may see or modify.
package visibility

import "listen80/model"

// IsExposable reports whether viewer may see p: the owner exists and is not
// banned, and p is public or viewer is the owner.
func IsExposable(p *model.Playlist, owner *model.User, viewer string) bool {
	if p == nil || owner == nil || owner.IsBan {
		return false
	}
	if owner.Account != p.UserAccount {
		return false
	}
	return p.IsPublic || viewer == p.UserAccount
}

// IsOwner reports whether actor may modify p. The anonymous viewer owns nothing.
func IsOwner(p *model.Playlist, actor string) bool {
	if p == nil || model.IsAnonymous(actor) {
		return false
	}
	return p.UserAccount == actor
}

// OwnerFunc resolves the owner of a playlist; nil means the owner is gone.
type OwnerFunc func(p *model.Playlist) (*model.User, error)

// Filter keeps the candidates exposable to viewer, preserving order.
func Filter(candidates []*model.Playlist, ownerOf OwnerFunc, viewer string) ([]*model.Playlist, error) {
	out := make([]*model.Playlist, 0, len(candidates))
	for _, p := range candidates {
		owner, err := ownerOf(p)
		if err != nil {
			return nil, err
		}
		if IsExposable(p, owner, viewer) {
			out = append(out, p)
		}
	}
	return out, nil
}
