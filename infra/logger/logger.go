package logger

import corelogger "github.com/wiltonn/productfolio-sub002/core/logger"

// Logger mirrors the core logger interface so infra packages do not import
// core directly.
type Logger = corelogger.Logger

// New returns a zerolog-backed Logger tagged with the component name. The
// output format follows the PF_ENV environment variable.
func New(component string) Logger {
	return NewZerolog(component)
}
