package server

// Route path constants
const (
	// Account routes
	RouteUsers          = "/users"
	RouteUsersLogin     = "/users/login"
	RouteUsersLogout    = "/users/logout"
	RouteUsersLogoutAll = "/users/logoutAll"
	RouteUsersMe        = "/users/me"

	// Avatar routes
	RouteUsersMeAvatar = "/users/me/avatar"
	RouteUserAvatar    = "/users/{id}/avatar"

	RouteHealth = "/healthz"
)
