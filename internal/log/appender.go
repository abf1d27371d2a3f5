package log

import (
	"fmt"
	"io"
	"os"
)

// MultiWriter fans each log line out to every appender. A failing appender
// does not stop the others; the last error is reported.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// buildAppenders assembles the output writer from appender configs.
func buildAppenders(configs []AppenderConfig) (*MultiWriter, error) {
	mw := NewMultiWriter()
	for _, ac := range configs {
		switch ac.Type {
		case "console", "stdout":
			mw.Add(os.Stdout)
		case "stderr":
			mw.Add(os.Stderr)
		case "file":
			if err := mw.AddFileAppender(ac.Options); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("log: unknown appender type %q", ac.Type)
		}
	}
	return mw, nil
}
