package log

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// formatter renders entries through a pattern holding %time, %level,
// %fields, %msg, %caller and %goroutine placeholders.
type formatter struct {
	pattern string
	time    string
}

func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	out := f.pattern
	out = strings.Replace(out, "%time", entry.Time.Format(f.time), 1)
	out = strings.Replace(out, "%level", entry.Level.String(), 1)
	out = strings.Replace(out, "%fields", renderFields(entry), 1)
	out = strings.Replace(out, "%msg", entry.Message, 1)
	if strings.Contains(out, "%caller") {
		out = strings.Replace(out, "%caller", callerRef(entry), 1)
	}
	if strings.Contains(out, "%goroutine") {
		out = strings.Replace(out, "%goroutine", goroutineID(), 1)
	}
	return []byte(out), nil
}

// renderFields joins entry data as k=v pairs, sorted so output is stable.
func renderFields(entry *logrus.Entry) string {
	if len(entry.Data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Data[k]))
	}
	return strings.Join(parts, ",")
}

func callerRef(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "???"
	}
	file := entry.Caller.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, entry.Caller.Line)
}

// goroutineID digs the id out of the stack header; the runtime offers
// nothing cheaper.
func goroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	head := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(head, ' '); i > 0 {
		return head[:i]
	}
	return "?"
}
