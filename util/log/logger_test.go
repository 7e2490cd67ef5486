package log

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testEntry(level logrus.Level) *logrus.Entry {
	return &logrus.Entry{
		Time:    time.Date(2021, 6, 9, 12, 30, 5, 0, time.UTC),
		Level:   level,
		Message: "buffer flushed",
		Data: logrus.Fields{
			"words": 4074,
		},
	}
}

func TestFormatPlain(t *testing.T) {
	flf := &FancyLogFormatter{UseColors: false}
	line, err := flf.Format(testEntry(logrus.InfoLevel))
	require.Nil(t, err)

	require.Equal(
		t,
		"09.06.2021/12:30:05 ⚐ buffer flushed [words=4074]\n",
		string(line),
	)
}

func TestFormatColors(t *testing.T) {
	oldNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = oldNoColor }()

	flf := &FancyLogFormatter{UseColors: true}
	line, err := flf.Format(testEntry(logrus.InfoLevel))
	require.Nil(t, err)

	// Info is rendered green:
	require.True(t, strings.Contains(string(line), "\x1b[32m"))
	require.True(t, strings.Contains(string(line), "buffer flushed"))
}

func TestFormatSymbols(t *testing.T) {
	flf := &FancyLogFormatter{UseColors: false}

	for level, symbol := range map[logrus.Level]string{
		logrus.DebugLevel: "⚙",
		logrus.WarnLevel:  "⚠",
		logrus.ErrorLevel: "⚡",
	} {
		line, err := flf.Format(testEntry(level))
		require.Nil(t, err)
		require.True(t, strings.Contains(string(line), symbol))
	}
}
