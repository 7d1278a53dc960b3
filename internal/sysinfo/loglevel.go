package sysinfo

import (
	"github.com/rs/zerolog"

	"github.com/nilnode/nildb/internal/nilerrors"
)

func parseLevel(level string) (zerolog.Level, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return 0, nilerrors.Newf(nilerrors.DataValidation, "invalid log level %q", level)
	}
	return parsed, nil
}

func applyGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
