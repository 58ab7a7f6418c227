package server

func (s *Server) initRoutes() {
	// Login-domain surface
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthValidateSession, ChainMiddleware(s.ValidateSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthInitSession, ChainMiddleware(s.InitSessionHandler(), append(s.APIMiddleware(), s.RequireLoginSession())...))

	// Tenant-domain surface
	s.RegisterRouteFunc("GET "+RouteTenantVerifyToken, ChainMiddleware(s.VerifyTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteTenantPing, ChainMiddleware(s.PingHandler(), append(s.APIMiddleware(), s.RequireTenantSession())...))
}
