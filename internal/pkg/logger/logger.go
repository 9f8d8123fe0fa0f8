// Package logger writes one JSON object per line for the planner's services
// and masks recipient PII (addresses and names from the recipients table)
// before anything reaches the output.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level is the severity of an entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps logging.level to a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

type sink struct {
	mu        sync.Mutex
	level     Level
	redactPII bool
	out       io.Writer
}

var std = &sink{level: INFO, redactPII: true, out: os.Stderr}

func SetLevel(l Level) {
	std.mu.Lock()
	std.level = l
	std.mu.Unlock()
}

func SetRedactPII(on bool) {
	std.mu.Lock()
	std.redactPII = on
	std.mu.Unlock()
}

// SetOutput redirects entries, for tests.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = w
	std.mu.Unlock()
}

func Debug(msg string, kv ...interface{}) { std.write(DEBUG, msg, kv) }
func Info(msg string, kv ...interface{}) { std.write(INFO, msg, kv) }
func Warn(msg string, kv ...interface{}) { std.write(WARN, msg, kv) }
func Error(msg string, kv ...interface{}) { std.write(ERROR, msg, kv) }

func (s *sink) write(level Level, msg string, kv []interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}

	entry := make(map[string]string, 3+len(kv)/2)
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["msg"] = msg
	// A trailing key without a value is dropped.
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		val := fmt.Sprint(kv[i+1])
		if s.redactPII {
			val = scrub(key, val)
		}
		entry[key] = val
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	s.out.Write(append(line, '\n'))
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// recipient columns that identify a person
	nameKeys = map[string]bool{"recipient_name": true, "lastname": true, "last_name": true}
)

func scrub(key, val string) string {
	key = strings.ToLower(key)
	switch {
	case nameKeys[key]:
		return "[redacted]"
	case strings.Contains(key, "email"):
		return RedactEmail(val)
	}
	// Prompts and driver errors can embed addresses.
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail keeps the first two characters of the local part and the
// domain: "john.doe@example.com" becomes "jo***@example.com". Anything that
// is not a single-@ address becomes "***@***".
func RedactEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
