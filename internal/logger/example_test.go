package logger_test

import (
	"github.com/maxkimambo/assetflow/internal/logger"
)

func Example_unifiedLogger() {
	// Operational logs with task and stage fields
	logger.Debug("Starting task", logger.WithTask("scss"))
	logger.Error("Stage failed", logger.WithStage("javascript"))

	// Emoji status lines for users
	logger.User.Compile("Compiling src/scss/main.scss")
	logger.User.Copy("Copying fonts")
	logger.Op.WithFields(map[string]interface{}{
		"task":     "images",
		"duration": "1.2s",
	}).Info("Finished task")
}
