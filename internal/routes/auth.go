package routes

import (
	"errors"
	"strconv"

	"github.com/bohemiyan/taskflow"
	"github.com/gofiber/fiber/v2"
)

// ActorHeader carries the id of the acting user, set by the upstream auth layer.
const ActorHeader = "X-User-ID"

const actorKey = "actor"

// ActingUser resolves the acting user from ActorHeader and stores it in Locals.
func ActingUser(svc *taskflow.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Get(ActorHeader), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "acting user not found in request")
		}

		user, err := svc.GetUser(c.UserContext(), uint(id))
		if err != nil {
			if errors.Is(err, taskflow.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unknown acting user")
			}
			return err
		}

		c.Locals(actorKey, user)
		return c.Next()
	}
}

// RequirePermission rejects requests whose actor lacks the permission key.
func RequirePermission(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actor(c).Can(key) {
			return fiber.NewError(fiber.StatusForbidden, taskflow.ErrPermissionDenied.Error())
		}
		return c.Next()
	}
}

func actor(c *fiber.Ctx) *taskflow.User {
	u, _ := c.Locals(actorKey).(*taskflow.User)
	return u
}
