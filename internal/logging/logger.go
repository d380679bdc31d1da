// Package logging provides config-driven categorized file-based logging for excavator.
// Logs are written to <state-dir>/logs/ with separate files per category.
// Logging is controlled by debug_mode in config - when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot         Category = "boot"
	CategoryCatalog      Category = "catalog"
	CategoryVectorStore  Category = "vectorstore"
	CategoryQueue        Category = "queue"
	CategoryWatcher      Category = "watcher"
	CategoryPipeline     Category = "pipeline"
	CategoryExtractor    Category = "extractor"
	CategoryEmbedding    Category = "embedding"
	CategoryNER          Category = "ner"
	CategoryCorrelation  Category = "correlation"
	CategoryOperation    Category = "operation"
	CategoryControlPlane Category = "controlplane"
	CategoryDaemon       Category = "daemon"
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports.
type loggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

// StructuredLogEntry represents a JSON log entry.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`
	Category  string                 `json:"cat"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	stateDir  string
	config    loggingConfig
	configMu  sync.RWMutex
	logLevel  int
)

const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Configure wires the package-level config directly, bypassing disk reads.
// Called once at daemon startup after internal/config has parsed the file.
func Configure(dir string, debugMode bool, categories map[string]bool, level string, jsonFormat bool) error {
	if dir == "" {
		return fmt.Errorf("state directory required")
	}
	stateDir = dir
	logsDir = filepath.Join(stateDir, "logs")

	configMu.Lock()
	config = loggingConfig{DebugMode: debugMode, Categories: categories, Level: level, JSONFormat: jsonFormat}
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	configMu.Unlock()

	if !debugMode {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("excavator logging initialized")
	boot.Info("state dir: %s", stateDir)
	boot.Info("log level: %s", level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if config.Categories == nil {
		return true
	}
	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) logJSON(level, msg string, fields map[string]interface{}) {
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("%s", data)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("debug", msg, nil)
	} else {
		l.logger.Printf("[DEBUG] %s", msg)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("info", msg, nil)
	} else {
		l.logger.Printf("[INFO] %s", msg)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("warn", msg, nil)
	} else {
		l.logger.Printf("[WARN] %s", msg)
	}
}

// Error always logs, regardless of configured level.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("error", msg, nil)
	} else {
		l.logger.Printf("[ERROR] %s", msg)
	}
}

// StructuredLog writes a log entry carrying extra key/value fields.
func (l *Logger) StructuredLog(level, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	if config.JSONFormat {
		l.logJSON(level, msg, fields)
		return
	}
	l.logger.Printf("[%s] %s | fields=%v", level, msg, fields)
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick category logging without getting a logger first.
// =============================================================================

func Boot(format string, args ...interface{})         { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{})    { Get(CategoryBoot).Debug(format, args...) }
func BootError(format string, args ...interface{})    { Get(CategoryBoot).Error(format, args...) }

func Catalog(format string, args ...interface{})      { Get(CategoryCatalog).Info(format, args...) }
func CatalogDebug(format string, args ...interface{}) { Get(CategoryCatalog).Debug(format, args...) }
func CatalogError(format string, args ...interface{}) { Get(CategoryCatalog).Error(format, args...) }

func VectorStore(format string, args ...interface{})      { Get(CategoryVectorStore).Info(format, args...) }
func VectorStoreDebug(format string, args ...interface{}) { Get(CategoryVectorStore).Debug(format, args...) }
func VectorStoreError(format string, args ...interface{}) { Get(CategoryVectorStore).Error(format, args...) }

func Queue(format string, args ...interface{})      { Get(CategoryQueue).Info(format, args...) }
func QueueDebug(format string, args ...interface{}) { Get(CategoryQueue).Debug(format, args...) }
func QueueError(format string, args ...interface{}) { Get(CategoryQueue).Error(format, args...) }

func Watcher(format string, args ...interface{})      { Get(CategoryWatcher).Info(format, args...) }
func WatcherDebug(format string, args ...interface{}) { Get(CategoryWatcher).Debug(format, args...) }
func WatcherError(format string, args ...interface{}) { Get(CategoryWatcher).Error(format, args...) }

func Pipeline(format string, args ...interface{})      { Get(CategoryPipeline).Info(format, args...) }
func PipelineDebug(format string, args ...interface{}) { Get(CategoryPipeline).Debug(format, args...) }
func PipelineError(format string, args ...interface{}) { Get(CategoryPipeline).Error(format, args...) }

func Extractor(format string, args ...interface{})      { Get(CategoryExtractor).Info(format, args...) }
func ExtractorDebug(format string, args ...interface{}) { Get(CategoryExtractor).Debug(format, args...) }

func Embedding(format string, args ...interface{})      { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{}) { Get(CategoryEmbedding).Debug(format, args...) }
func EmbeddingWarn(format string, args ...interface{})  { Get(CategoryEmbedding).Warn(format, args...) }
func EmbeddingError(format string, args ...interface{}) { Get(CategoryEmbedding).Error(format, args...) }

func NER(format string, args ...interface{})      { Get(CategoryNER).Info(format, args...) }
func NERDebug(format string, args ...interface{}) { Get(CategoryNER).Debug(format, args...) }

func Correlation(format string, args ...interface{})      { Get(CategoryCorrelation).Info(format, args...) }
func CorrelationDebug(format string, args ...interface{}) { Get(CategoryCorrelation).Debug(format, args...) }
func CorrelationError(format string, args ...interface{}) { Get(CategoryCorrelation).Error(format, args...) }

func Operation(format string, args ...interface{})      { Get(CategoryOperation).Info(format, args...) }
func OperationDebug(format string, args ...interface{}) { Get(CategoryOperation).Debug(format, args...) }

func ControlPlane(format string, args ...interface{})      { Get(CategoryControlPlane).Info(format, args...) }
func ControlPlaneDebug(format string, args ...interface{}) { Get(CategoryControlPlane).Debug(format, args...) }
func ControlPlaneError(format string, args ...interface{}) { Get(CategoryControlPlane).Error(format, args...) }

func Daemon(format string, args ...interface{})      { Get(CategoryDaemon).Info(format, args...) }
func DaemonError(format string, args ...interface{}) { Get(CategoryDaemon).Error(format, args...) }

// Timer measures and logs the duration of an operation.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold, debug otherwise.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
