// Package logger provides a singleton zap logger with context-based scoping.
//
// Initialize once in main:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// Middlewares inject a request-scoped logger into the context; anywhere else
// use logger.From(ctx) and the typed field helpers:
//
//	logger.From(ctx).Info("token redeemed", logger.AppID(appID), logger.UserID(userID))
//
// "dev" environment logs colored console output, "prod" logs JSON.
package logger
