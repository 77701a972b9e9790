// Package groups provides the group catalog and membership endpoints.
package groups

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/web/handler"
)

const (
	// Path lists the classified group catalog.
	Path = handler.APIPath + "/groups"
	// MembersPath lists the members of a group by raw name.
	MembersPath = Path + "/:name/members"
	// UsersGroupsPath lists the groups of several users, ?ids=a,b.
	UsersGroupsPath = handler.APIPath + "/users/groups"
	// UserGroupsPath reads or replaces the groups of one user.
	UserGroupsPath = handler.APIPath + "/users/:id/groups"
)

// Service provides the group endpoints.
type Service struct {
	handler.Service
	groups *identity.GroupEngine
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *identity.Engine, authService *auth.Service) {
	if app == nil || cfg == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.groups = engine.Groups

	app.Get(Path, s.List)
	app.Get(MembersPath, s.Members)
	app.Get(UsersGroupsPath, s.UsersGroups)
	app.Get(UserGroupsPath, s.UserGroups)
	app.Put(UserGroupsPath,
		auth.Authenticate(authService),
		auth.RequirePermission(authService, auth.PermAdminGroups),
		s.Update,
	)
}

// List returns the group catalog split into legacy and current groups.
func (s *Service) List(c *fiber.Ctx) error {
	buckets, err := s.groups.GetAllGroups(c.UserContext())
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(buckets)
}

// Members returns the members of the group with the given raw name.
func (s *Service) Members(c *fiber.Ctx) error {
	members, err := s.groups.GetUsersByGroup(c.UserContext(), c.Params("name"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(members)
}

// UsersGroups returns the groups of every user of the ids query.
func (s *Service) UsersGroups(c *fiber.Ctx) error {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		return handler.Error(c, &handler.ValidationError{Message: "query parameter ids is required"})
	}

	return c.JSON(s.groups.GetUsersGroups(c.UserContext(), ids))
}

// UserGroups returns the groups of one user.
func (s *Service) UserGroups(c *fiber.Ctx) error {
	buckets, err := s.groups.GetUserGroups(c.UserContext(), c.Params("id"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(buckets)
}

// Update moves the user to exactly the group ids of the body, a JSON list.
func (s *Service) Update(c *fiber.Ctx) error {
	var target []string
	if err := c.BodyParser(&target); err != nil {
		return handler.Error(c, &handler.ValidationError{Message: "invalid request body"})
	}

	userID := c.Params("id")

	buckets, err := s.groups.UpdateUserGroups(c.UserContext(), userID, target)
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Str("user_id", userID).Int("groups", len(target)).Msg("user groups updated")

	return c.JSON(buckets)
}

func splitIDs(raw string) []string {
	var ids []string

	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}
