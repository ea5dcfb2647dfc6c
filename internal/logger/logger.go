package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	User *UserLogger // Clean build status for users (stdout) with emojis
	Op   *OpLogger   // Detailed operational logs (stderr) without emojis

	log *UnifiedLogger
)

// Emojis prefixed to user-facing build messages
const (
	emojiError   = "❌"
	emojiWarn    = "⚠️"
	emojiStart   = "🚀"
	emojiSuccess = "✅"
	emojiCompile = "🛠️"
	emojiCopy    = "📦"
	emojiWatch   = "👀"
	emojiDelete  = "🗑️"
	emojiCleanup = "🧹"
)

func init() {
	log = GetLogger()
	User = &UserLogger{logger: log.GetInternalLogger()}
	Op = &OpLogger{logger: log.GetInternalLogger()}
}

type UserLogger struct {
	logger *logrus.Logger
}

type OpLogger struct {
	logger *logrus.Logger
}

func (u *UserLogger) entry(emoji string) *logrus.Entry {
	fields := logrus.Fields{"log_type": string(UserLog)}
	if emoji != "" {
		fields["emoji"] = emoji
	}
	return u.logger.WithFields(fields)
}

func (u *UserLogger) Info(msg string) {
	u.entry("").Info(msg)
}

func (u *UserLogger) Infof(format string, args ...interface{}) {
	u.entry("").Infof(format, args...)
}

func (u *UserLogger) Error(msg string) {
	u.entry(emojiError).Error(msg)
}

func (u *UserLogger) Errorf(format string, args ...interface{}) {
	u.entry(emojiError).Errorf(format, args...)
}

func (u *UserLogger) Warn(msg string) {
	u.entry(emojiWarn).Warn(msg)
}

func (u *UserLogger) Warnf(format string, args ...interface{}) {
	u.entry(emojiWarn).Warnf(format, args...)
}

// Build status methods with relevant emojis
func (u *UserLogger) Starting(msg string) {
	u.entry(emojiStart).Info(msg)
}

func (u *UserLogger) Startingf(format string, args ...interface{}) {
	u.entry(emojiStart).Infof(format, args...)
}

func (u *UserLogger) Success(msg string) {
	u.entry(emojiSuccess).Info(msg)
}

func (u *UserLogger) Successf(format string, args ...interface{}) {
	u.entry(emojiSuccess).Infof(format, args...)
}

func (u *UserLogger) Compile(msg string) {
	u.entry(emojiCompile).Info(msg)
}

func (u *UserLogger) Compilef(format string, args ...interface{}) {
	u.entry(emojiCompile).Infof(format, args...)
}

func (u *UserLogger) Copy(msg string) {
	u.entry(emojiCopy).Info(msg)
}

func (u *UserLogger) Copyf(format string, args ...interface{}) {
	u.entry(emojiCopy).Infof(format, args...)
}

func (u *UserLogger) Watch(msg string) {
	u.entry(emojiWatch).Info(msg)
}

func (u *UserLogger) Watchf(format string, args ...interface{}) {
	u.entry(emojiWatch).Infof(format, args...)
}

func (u *UserLogger) Delete(msg string) {
	u.entry(emojiDelete).Info(msg)
}

func (u *UserLogger) Deletef(format string, args ...interface{}) {
	u.entry(emojiDelete).Infof(format, args...)
}

func (u *UserLogger) Cleanup(msg string) {
	u.entry(emojiCleanup).Info(msg)
}

func (u *UserLogger) Cleanupf(format string, args ...interface{}) {
	u.entry(emojiCleanup).Infof(format, args...)
}

// OpLogger methods without emojis - clean operational logs
func (o *OpLogger) Info(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Info(msg)
}

func (o *OpLogger) Infof(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Infof(format, args...)
}

func (o *OpLogger) Error(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Error(msg)
}

func (o *OpLogger) Errorf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Errorf(format, args...)
}

func (o *OpLogger) Warn(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Warn(msg)
}

func (o *OpLogger) Warnf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Warnf(format, args...)
}

func (o *OpLogger) Debug(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Debug(msg)
}

func (o *OpLogger) Debugf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Debugf(format, args...)
}

func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["log_type"] = string(OpLog)
	return o.logger.WithFields(fields)
}

// CLIFormatter provides clean output for CLI applications
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.DisableLevel && f.DisableTimestamp {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("15:04:05"))
		b.WriteString(" ")
	}

	if !f.DisableLevel {
		levelColor := ""
		resetColor := ""
		if !f.DisableColors {
			switch entry.Level {
			case logrus.ErrorLevel:
				levelColor = "\033[31m" // Red
			case logrus.WarnLevel:
				levelColor = "\033[33m" // Yellow
			case logrus.InfoLevel:
				levelColor = "\033[36m" // Cyan
			case logrus.DebugLevel:
				levelColor = "\033[37m" // White
			}
			resetColor = "\033[0m"
		}

		b.WriteString(levelColor)
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(resetColor)
		b.WriteString(": ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "log_type" || k == "emoji" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Setup configures both log streams. LOG_MODE (quiet|verbose|debug) and
// LOG_FORMAT (json|text) override the flags.
func Setup(verbose bool, jsonLogs bool, quiet bool) {
	SetupWithWriters(verbose, jsonLogs, quiet, os.Stdout, os.Stderr)
}

// SetupWithWriters is Setup with explicit destinations for the user and
// operational streams.
func SetupWithWriters(verbose bool, jsonLogs bool, quiet bool, userOut, opOut io.Writer) {
	if envLogMode := os.Getenv("LOG_MODE"); envLogMode != "" {
		switch envLogMode {
		case "quiet":
			quiet = true
			verbose = false
		case "verbose", "debug":
			verbose = true
			quiet = false
		}
	}

	if envLogFormat := os.Getenv("LOG_FORMAT"); envLogFormat != "" {
		switch envLogFormat {
		case "json":
			jsonLogs = true
		case "text":
			jsonLogs = false
		}
	}

	ul := GetLogger()
	internalLogger := ul.GetInternalLogger()

	var level logrus.Level
	if quiet {
		level = logrus.ErrorLevel
	} else if verbose {
		level = logrus.DebugLevel
	} else {
		level = logrus.InfoLevel
	}

	internalLogger.Hooks = make(logrus.LevelHooks)

	hook := NewOutputRouterHook()
	hook.UserWriter = userOut
	hook.OpWriter = opOut

	if jsonLogs {
		internalLogger.SetFormatter(&logrus.JSONFormatter{})
		hook.UserFormatter = &logrus.JSONFormatter{}
		hook.OpFormatter = &logrus.JSONFormatter{}
	} else {
		internalLogger.SetFormatter(&logrus.TextFormatter{})
		hook.UserFormatter = &CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		}
		tty := isTerminal(opOut)
		if verbose {
			hook.OpFormatter = &logrus.TextFormatter{
				FullTimestamp: true,
				ForceColors:   tty,
			}
		} else {
			hook.OpFormatter = &CLIFormatter{
				DisableTimestamp: true,
				DisableColors:    !tty,
			}
		}
	}

	internalLogger.SetLevel(level)
	internalLogger.SetOutput(io.Discard) // output handled by the hook
	internalLogger.AddHook(hook)

	User = &UserLogger{logger: internalLogger}
	Op = &OpLogger{logger: internalLogger}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// Error logs an operational error message with fields
func Error(msg string, fields ...Field) {
	log.Error(msg, fields...)
}

// Warn logs an operational warning with fields
func Warn(msg string, fields ...Field) {
	log.Warn(msg, fields...)
}

// Debug logs an operational debug message with fields
func Debug(msg string, fields ...Field) {
	log.Debug(msg, fields...)
}
