package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUsersLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("POST "+RouteUsersLogout, ChainMiddleware(s.LogoutHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUsersLogoutAll, ChainMiddleware(s.LogoutAllHandler(), s.AuthAPIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteUsersMe, ChainMiddleware(s.MeHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("PATCH "+RouteUsersMe, ChainMiddleware(s.UpdateMeHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteUsersMe, ChainMiddleware(s.DeleteMeHandler(), s.AuthAPIMiddleware()...))

	s.RegisterRouteHandler("POST "+RouteUsersMeAvatar, ChainMiddleware(s.UploadAvatarHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteUsersMeAvatar, ChainMiddleware(s.DeleteAvatarHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUserAvatar, ChainMiddleware(s.AvatarHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))

	// CORS preflight for every path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
