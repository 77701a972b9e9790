package keycloak

import (
	"context"

	"github.com/Nerzal/gocloak/v13"

	"github.com/idsync/idsync/internal/identity"
)

// flattenGroups walks sub groups depth first.
func flattenGroups(groups []*gocloak.Group) []identity.ProviderGroup {
	var out []identity.ProviderGroup

	for _, g := range groups {
		if g == nil {
			continue
		}

		out = append(out, identity.ProviderGroup{
			ID:   gocloak.PString(g.ID),
			Name: gocloak.PString(g.Name),
		})

		if g.SubGroups != nil {
			subGroups := make([]*gocloak.Group, 0, len(*g.SubGroups))
			for i := range *g.SubGroups {
				subGroups = append(subGroups, &(*g.SubGroups)[i])
			}

			out = append(out, flattenGroups(subGroups)...)
		}
	}

	return out
}

// UserGroups returns the direct group memberships of a user.
func (s *Service) UserGroups(ctx context.Context, userID string) ([]identity.ProviderGroup, error) {
	var groups []*gocloak.Group

	err := s.call(ctx, "user_groups", func(token string) error {
		var err error

		groups, err = s.gocloak.GetUserGroups(ctx, token, s.cfg.Realm, userID, gocloak.GetGroupsParams{
			Max: gocloak.IntP(pageSize),
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	return flattenGroups(groups), nil
}

// JoinGroup adds a user to a group.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID string) error {
	return s.call(ctx, "join_group", func(token string) error {
		return s.gocloak.AddUserToGroup(ctx, token, s.cfg.Realm, userID, groupID)
	})
}

// LeaveGroup removes a user from a group.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	return s.call(ctx, "leave_group", func(token string) error {
		return s.gocloak.DeleteUserFromGroup(ctx, token, s.cfg.Realm, userID, groupID)
	})
}

// ListGroups returns every group of the realm, sub groups included.
func (s *Service) ListGroups(ctx context.Context) ([]identity.ProviderGroup, error) {
	var all []*gocloak.Group

	err := s.call(ctx, "list_groups", func(token string) error {
		for first := 0; ; first += pageSize {
			page, err := s.gocloak.GetGroups(ctx, token, s.cfg.Realm, gocloak.GetGroupsParams{
				First:               gocloak.IntP(first),
				Max:                 gocloak.IntP(pageSize),
				BriefRepresentation: gocloak.BoolP(false),
			})
			if err != nil {
				return err
			}

			all = append(all, page...)

			if len(page) < pageSize {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return flattenGroups(all), nil
}

// GroupMembers returns the direct members of a group.
func (s *Service) GroupMembers(ctx context.Context, groupID string) ([]identity.ProviderUser, error) {
	var members []*gocloak.User

	err := s.call(ctx, "group_members", func(token string) error {
		var err error

		members, err = s.gocloak.GetGroupMembers(ctx, token, s.cfg.Realm, groupID, gocloak.GetGroupsParams{
			Max: gocloak.IntP(pageSize),
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	return toProviderUsers(members), nil
}
