package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// DefaultLegacyMarker marks groups that belong to the old role model.
const DefaultLegacyMarker = "OLD_"

// Classify partitions provider groups into legacy and current buckets.
//
// A group is legacy when its raw name contains marker anywhere. The display
// name is the raw name with everything up to the end of the first marker
// occurrence removed, underscores replaced by spaces and every word
// capitalized.
func Classify(groups []ProviderGroup, marker string) GroupBuckets {
	buckets := GroupBuckets{
		Legacy:  []Group{},
		Current: []Group{},
	}

	for _, g := range groups {
		group := Group{ID: g.ID, RawName: g.Name}

		if i := strings.Index(g.Name, marker); marker != "" && i >= 0 {
			group.State = GroupLegacy
			group.Name = displayName(g.Name[i+len(marker):])
			buckets.Legacy = append(buckets.Legacy, group)

			continue
		}

		group.State = GroupCurrent
		group.Name = displayName(g.Name)
		buckets.Current = append(buckets.Current, group)
	}

	return buckets
}

// displayName turns "sales_team" into "Sales Team".
func displayName(raw string) string {
	spaced := strings.Join(strings.Split(raw, "_"), " ")

	var (
		b         strings.Builder
		wordStart = true
	)

	b.Grow(len(spaced))

	for _, r := range spaced {
		switch {
		case unicode.IsSpace(r):
			wordStart = true
		case wordStart:
			r = unicode.ToTitle(r)
			wordStart = false
		default:
			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}

// Diff computes the memberships to drop and to add to move from current to
// target. Duplicates are ignored and input order is kept.
func Diff(current, target []string) MembershipDiff {
	cur := toSet(current)
	tgt := toSet(target)

	return MembershipDiff{
		ToLeave: minus(current, tgt),
		ToJoin:  minus(target, cur),
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}

	return set
}

func minus(items []string, exclude map[string]struct{}) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if _, ok := exclude[item]; ok {
			continue
		}

		if _, ok := seen[item]; ok {
			continue
		}

		seen[item] = struct{}{}
		out = append(out, item)
	}

	return out
}

// GroupEngine reads and migrates provider group memberships.
type GroupEngine struct {
	provider Provider
	marker   string
}

// NewGroupEngine creates a GroupEngine. An empty marker selects DefaultLegacyMarker.
func NewGroupEngine(provider Provider, marker string) *GroupEngine {
	if marker == "" {
		marker = DefaultLegacyMarker
	}

	return &GroupEngine{provider: provider, marker: marker}
}

// Apply leaves every group of diff.ToLeave, then joins every group of
// diff.ToJoin. A failed call is logged and does not stop the others; the
// returned error joins all failures.
func (g *GroupEngine) Apply(ctx context.Context, userID string, diff MembershipDiff) error {
	var errs []error

	for _, groupID := range diff.ToLeave {
		if err := g.provider.LeaveGroup(ctx, userID, groupID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("group_id", groupID).Msg("failed to leave group")
			errs = append(errs, fmt.Errorf("leave %s: %w", groupID, err))
		}
	}

	for _, groupID := range diff.ToJoin {
		if err := g.provider.JoinGroup(ctx, userID, groupID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("group_id", groupID).Msg("failed to join group")
			errs = append(errs, fmt.Errorf("join %s: %w", groupID, err))
		}
	}

	return errors.Join(errs...)
}

// UpdateUserGroups moves the user's memberships to exactly the target group
// ids and returns the memberships read back from the provider.
func (g *GroupEngine) UpdateUserGroups(ctx context.Context, userID string, target []string) (GroupBuckets, error) {
	current, err := g.provider.UserGroups(ctx, userID)
	if err != nil {
		return GroupBuckets{}, fmt.Errorf("failed to read groups of user %s: %w", userID, err)
	}

	ids := make([]string, 0, len(current))
	for _, group := range current {
		ids = append(ids, group.ID)
	}

	diff := Diff(ids, target)
	if !diff.Empty() {
		if err = g.Apply(ctx, userID, diff); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("group update was partially applied")
		}
	}

	return g.GetUserGroups(ctx, userID)
}

// GetUserGroups returns the classified memberships of a user. An unknown
// user has no groups.
func (g *GroupEngine) GetUserGroups(ctx context.Context, userID string) (GroupBuckets, error) {
	groups, err := g.provider.UserGroups(ctx, userID)
	if errors.Is(err, ErrIdentityNotFound) {
		log.Debug().Str("user_id", userID).Msg("user not found at provider")
		return Classify(nil, g.marker), nil
	}

	if err != nil {
		return GroupBuckets{}, fmt.Errorf("failed to read groups of user %s: %w", userID, err)
	}

	return Classify(groups, g.marker), nil
}

// GetUsersGroups returns the classified memberships of several users.
// A failing lookup yields empty buckets for that user only.
func (g *GroupEngine) GetUsersGroups(ctx context.Context, userIDs []string) []UserWithGroups {
	out := make([]UserWithGroups, 0, len(userIDs))

	for _, userID := range userIDs {
		buckets, err := g.GetUserGroups(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to read user groups")

			buckets = Classify(nil, g.marker)
		}

		out = append(out, UserWithGroups{
			UserID:   userID,
			OldRoles: buckets.Legacy,
			NewRoles: buckets.Current,
		})
	}

	return out
}

// GetAllGroups returns the classified group catalog of the provider.
func (g *GroupEngine) GetAllGroups(ctx context.Context) (GroupBuckets, error) {
	groups, err := g.provider.ListGroups(ctx)
	if err != nil {
		return GroupBuckets{}, fmt.Errorf("failed to list groups: %w", err)
	}

	return Classify(groups, g.marker), nil
}

// GetUsersByGroup returns the members of the group with the exact raw name.
func (g *GroupEngine) GetUsersByGroup(ctx context.Context, name string) ([]UserReference, error) {
	groups, err := g.provider.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	for _, group := range groups {
		if group.Name != name {
			continue
		}

		members, errMembers := g.provider.GroupMembers(ctx, group.ID)
		if errMembers != nil {
			return nil, fmt.Errorf("failed to list members of group %s: %w", name, errMembers)
		}

		refs := make([]UserReference, 0, len(members))
		for _, m := range members {
			refs = append(refs, m.Reference())
		}

		return refs, nil
	}

	return nil, ErrGroupNotFound
}
