package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// JWTSecret is the HMAC key bearer tokens are signed with.
	JWTSecret string `mapstructure:"jwt_secret" default:""`
	// ModeratorRoles lists the user roles that may edit any observation
	// and trigger a sync (comma separated).
	ModeratorRoles string `mapstructure:"moderator_roles" default:"moderator,admin"`
	// BodyLimitMB caps multipart request bodies.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"32"`
}

// Moderators returns the parsed moderator role list.
func (c Config) Moderators() []string {
	var roles []string
	for _, r := range strings.Split(c.ModeratorRoles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
