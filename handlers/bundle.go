package handlers

import (
	userRepo "academix/database/repository/user"
	"academix/services/pin"
)

// HandlerBundle groups the assembled handlers and the dependencies route
// registration needs for middleware construction.
type HandlerBundle struct {
	UserRepo   userRepo.UserRepository
	PinService pin.PinService

	Auth      *AuthHandler
	Pin       *PinHandler
	Dashboard *DashboardHandler
}
