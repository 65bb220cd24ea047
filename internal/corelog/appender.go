package corelog

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

type multiWriter struct {
	writers []io.Writer
}

func newMultiWriter() *multiWriter {
	return &multiWriter{}
}

func (m *multiWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *multiWriter) add(w io.Writer) *multiWriter {
	m.writers = append(m.writers, w)
	return m
}

func (m *multiWriter) addFileAppender(opt FileConfig) *multiWriter {
	m.writers = append(m.writers, &lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		Compress:   opt.Compress,
	})
	return m
}
