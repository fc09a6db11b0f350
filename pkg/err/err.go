package errprocess

import (
	"errors"

	"github.com/AnkitChadoker/micro-chat/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
