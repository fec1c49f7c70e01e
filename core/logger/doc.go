// Package logger builds the zap logger used across the service.
//
// Level "debug" selects zap's development config, anything else the
// production config at that level. Format picks console or json encoding.
//
// Request handlers derive their logger from the Fiber context:
//
//	l := logger.WithRequest(log, c) // adds ray_id and, after auth, user_id
//	l.Error("Edit failed", zap.Error(err))
package logger
