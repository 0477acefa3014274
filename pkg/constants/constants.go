package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey    ContextKey = "app"
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	UserKey   ContextKey = "user"
	ParamsKey ContextKey = "params"
	LoggerKey ContextKey = "logger"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
