package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }

// Domain fields

func AppID(v string) zap.Field  { return zap.String("app_id", v) }
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// System fields

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// Generic fields

func Count(v int) zap.Field           { return zap.Int("count", v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func String(key, v string) zap.Field  { return zap.String(key, v) }
